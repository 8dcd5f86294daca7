package funder

import "strings"

const keyPrefix = "funder:"

// Prefix is the key prefix of every document in a collection.
func Prefix(collection string) string { return keyPrefix + collection + ":" }

// Key is the storage key of a funder document.
func Key(collection, id string) string { return Prefix(collection) + id }

// IDFromKey extracts the document id from a storage key.
func IDFromKey(key string) (string, bool) {
	rest, ok := strings.CutPrefix(key, keyPrefix)
	if !ok {
		return "", false
	}
	_, id, ok := strings.Cut(rest, ":")
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
