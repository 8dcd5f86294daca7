package query

import (
	"fmt"
	"math"
	"strings"
)

// Field is a base document field that can take part in text matching.
type Field string

// Matchable fields.
const (
	FunderName Field = "funderName"
	Overview   Field = "overview"
	IPTake     Field = "ipTake"
	Profile    Field = "profile"
)

// ContentFields are the free-text body fields, in boost order.
var ContentFields = []Field{Overview, IPTake, Profile}

// Variant is an indexed sub-variant of a field.
type Variant string

// Field variants.
const (
	VariantText         Variant = ""
	VariantExact        Variant = "exact"
	VariantAutocomplete Variant = "autocomplete"
)

// WeightedField is a field variant with its relevance weight.
type WeightedField struct {
	Field   Field
	Variant Variant
	Weight  float64
}

// Path returns the dotted field path, e.g. "funderName.autocomplete".
func (w WeightedField) Path() string { return fieldPath(w.Field, w.Variant) }

func fieldPath(f Field, v Variant) string {
	if v == VariantText {
		return string(f)
	}
	return string(f) + "." + string(v)
}

// BoostTable holds per-field-variant weights. Read-only after construction.
type BoostTable struct {
	weights map[string]float64
}

// DefaultBoosts returns the built-in weights.
// Content autocomplete sits below every content text field, not between the
// funder name and overview.
func DefaultBoosts() BoostTable {
	return BoostTable{weights: map[string]float64{
		"funderName.exact":        20,
		"funderName":              10,
		"funderName.autocomplete": 6,
		"overview":                5,
		"ipTake":                  4,
		"profile":                 3,
		"overview.autocomplete":   2,
		"ipTake.autocomplete":     2,
		"profile.autocomplete":    2,
	}}
}

// NewBoostTable overlays overrides on the defaults and validates the result.
// Override keys are dotted field paths.
func NewBoostTable(overrides map[string]float64) (BoostTable, error) {
	t := DefaultBoosts()
	for path, w := range overrides {
		if _, ok := t.weights[path]; !ok {
			return BoostTable{}, fmt.Errorf("unknown boost field %q", path)
		}
		t.weights[path] = w
	}
	if err := t.Validate(); err != nil {
		return BoostTable{}, err
	}
	return t, nil
}

// Weight returns the weight for a field variant, zero if it is not weighted.
func (t BoostTable) Weight(f Field, v Variant) float64 {
	return t.weights[fieldPath(f, v)]
}

// Validate enforces the relative ordering: funder-name exact > funder-name text >
// funder-name autocomplete > overview > ipTake > profile > every content autocomplete.
func (t BoostTable) Validate() error {
	chain := []string{"funderName.exact", "funderName", "funderName.autocomplete", "overview", "ipTake", "profile"}
	for i, path := range chain {
		w := t.weights[path]
		if w <= 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("boost for %s must be a positive number", path)
		}
		if i > 0 && w >= t.weights[chain[i-1]] {
			return fmt.Errorf("boost for %s (%g) must be lower than %s (%g)", path, w, chain[i-1], t.weights[chain[i-1]])
		}
	}
	floor := t.weights["profile"]
	for _, f := range ContentFields {
		path := fieldPath(f, VariantAutocomplete)
		w := t.weights[path]
		if w <= 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("boost for %s must be a positive number", path)
		}
		if w >= floor {
			return fmt.Errorf("boost for %s (%g) must be lower than profile (%g)", path, w, floor)
		}
	}
	return nil
}

// Eligible returns the weighted field variants a keyword match may use, highest weight first.
// nameOnly restricts the set to funder-name variants; autocomplete includes the prefix variants.
func (t BoostTable) Eligible(nameOnly, autocomplete bool) []WeightedField {
	out := []WeightedField{
		{Field: FunderName, Variant: VariantExact},
		{Field: FunderName, Variant: VariantText},
	}
	if autocomplete {
		out = append(out, WeightedField{Field: FunderName, Variant: VariantAutocomplete})
	}
	if !nameOnly {
		for _, f := range ContentFields {
			out = append(out, WeightedField{Field: f, Variant: VariantText})
		}
		if autocomplete {
			for _, f := range ContentFields {
				out = append(out, WeightedField{Field: f, Variant: VariantAutocomplete})
			}
		}
	}
	for i := range out {
		out[i].Weight = t.Weight(out[i].Field, out[i].Variant)
	}
	return out
}

// String renders the table in boost order, for logs.
func (t BoostTable) String() string {
	var b strings.Builder
	for i, wf := range t.Eligible(false, true) {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s^%g", wf.Path(), wf.Weight)
	}
	return b.String()
}
