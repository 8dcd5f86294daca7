package funder

import (
	"bytes"
	"encoding/json"
)

// Text is a text attribute that tolerates every shape the collections store:
// a plain string, a {"text": "..."} envelope (semantic collections), or absent/null.
// Any other shape decodes to the empty string.
type Text string

// UnmarshalJSON implements json.Unmarshaler. It never fails.
func (t *Text) UnmarshalJSON(data []byte) error {
	*t = ""
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if json.Unmarshal(data, &s) == nil {
			*t = Text(s)
		}
	case '{':
		var env struct {
			Text json.RawMessage `json:"text"`
		}
		if json.Unmarshal(data, &env) == nil {
			var s string
			if json.Unmarshal(env.Text, &s) == nil {
				*t = Text(s)
			}
		}
	}
	return nil
}

// TagList is a tag attribute stored either as a list of strings or a single string.
// Non-string list entries and blank strings are dropped.
type TagList []string

// UnmarshalJSON implements json.Unmarshaler. It never fails.
func (l *TagList) UnmarshalJSON(data []byte) error {
	*l = nil
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if json.Unmarshal(data, &s) == nil && s != "" {
			*l = TagList{s}
		}
	case '[':
		var items []json.RawMessage
		if json.Unmarshal(data, &items) != nil {
			return nil
		}
		out := make(TagList, 0, len(items))
		for _, item := range items {
			var s string
			if json.Unmarshal(item, &s) == nil && s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			*l = out
		}
	}
	return nil
}

// Ident is a document id stored as a string or a number.
type Ident string

// UnmarshalJSON implements json.Unmarshaler. It never fails.
func (i *Ident) UnmarshalJSON(data []byte) error {
	*i = ""
	var s string
	if json.Unmarshal(data, &s) == nil {
		*i = Ident(s)
		return nil
	}
	var n json.Number
	if json.Unmarshal(data, &n) == nil {
		*i = Ident(n.String())
	}
	return nil
}

// GeoLocation is the nested location object of the geoLocation-shaped collections.
type GeoLocation struct {
	States TagList `json:"states"`
}

// UnmarshalJSON implements json.Unmarshaler. Anything but an object decodes to no states.
func (g *GeoLocation) UnmarshalJSON(data []byte) error {
	*g = GeoLocation{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil
	}
	var raw struct {
		States TagList `json:"states"`
	}
	if json.Unmarshal(data, &raw) == nil {
		g.States = raw.States
	}
	return nil
}

// Source is a funder document as stored in any collection, decoded leniently.
type Source struct {
	ID          Ident        `json:"id"`
	FunderName  Text         `json:"funderName"`
	FunderURL   Text         `json:"funderUrl"`
	Overview    Text         `json:"overview"`
	IPTake      Text         `json:"ipTake"`
	Profile     Text         `json:"profile"`
	IssueAreas  TagList      `json:"issueAreas"`
	GeoLocation *GeoLocation `json:"geoLocation"`
	State       TagList      `json:"state"`
}

// DecodeSource decodes a stored document. Malformed input yields an empty Source
// and ok=false; shape irregularities inside a valid object are normalized silently.
func DecodeSource(raw []byte) (src Source, ok bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Source{}, false
	}
	// RETURN $ on a JSON index yields the root wrapped in a one-element array.
	if trimmed := bytes.TrimSpace(raw); trimmed[0] == '[' {
		var wrapped []json.RawMessage
		if json.Unmarshal(trimmed, &wrapped) != nil || len(wrapped) == 0 {
			return Source{}, false
		}
		raw = wrapped[0]
	}
	if err := json.Unmarshal(raw, &src); err != nil {
		return Source{}, false
	}
	return src, true
}

// Locations merges both location shapes, geoLocation.states first.
func (s Source) Locations() []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(tags TagList) {
		for _, t := range tags {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	if s.GeoLocation != nil {
		add(s.GeoLocation.States)
	}
	add(s.State)
	return out
}
