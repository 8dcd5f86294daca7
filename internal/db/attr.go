package db

import (
	"strings"

	"github.com/kailas-cloud/funderdex/internal/domain/search/query"
)

// Attribute naming shared by index definitions and query assemblers.
const (
	exactSuffix = "Exact"
	sortSuffix  = "Sort"
	vecSuffix   = "Vec"
	distSuffix  = "_dist"
)

// Attr maps a dotted document path to the attribute name used in queries.
func Attr(path string) string { return strings.ReplaceAll(path, ".", "_") }

// ExactAttr is the tag attribute holding the normalized whole value of a text field.
func ExactAttr(f query.Field) string { return string(f) + exactSuffix }

// SortAttr is the sortable tag attribute holding the lowercased value of a text field.
func SortAttr(field string) string { return Attr(field) + sortSuffix }

// VectorAttr is the vector attribute of a content field.
func VectorAttr(f query.Field) string { return string(f) + vecSuffix }

// DistanceAttr is the name a vector range query yields the distance under.
func DistanceAttr(f query.Field) string { return string(f) + distSuffix }
