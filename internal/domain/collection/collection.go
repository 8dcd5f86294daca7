package collection

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/kailas-cloud/funderdex/internal/domain/search/mode"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ID identifies a logical document collection.
type ID string

// Built-in collection ids.
const (
	Funders               ID = "funders"
	FundersPlaces         ID = "funders-places"
	FundersSemantic       ID = "funders-semantic"
	FundersSemanticPlaces ID = "funders-semantic-places"
)

// Location attribute names used by the two collection shapes.
const (
	LocationGeoStates = "geoLocation.states"
	LocationState     = "state"
)

// IssueAreasField is the issue-area tag attribute, identical in every collection.
const IssueAreasField = "issueAreas"

// Collection is an immutable logical collection: a routing target for one
// (mode, places) pair plus the physical index that backs it.
type Collection struct {
	id            ID
	searchMode    mode.Mode
	places        bool
	index         string
	locationField string
}

// New validates and creates a collection descriptor.
func New(id ID, m mode.Mode, places bool, index, locationField string) (Collection, error) {
	if id == "" {
		return Collection{}, fmt.Errorf("collection id is required")
	}
	if len(id) > 64 {
		return Collection{}, fmt.Errorf("collection id too long (max 64)")
	}
	if !idRegex.MatchString(string(id)) {
		return Collection{}, fmt.Errorf("collection id must be alphanumeric with underscores and hyphens")
	}
	if !m.IsValid() {
		return Collection{}, fmt.Errorf("collection %s: invalid mode %q", id, m)
	}
	if index == "" {
		return Collection{}, fmt.Errorf("collection %s: index is required", id)
	}
	if locationField != LocationGeoStates && locationField != LocationState {
		return Collection{}, fmt.Errorf("collection %s: unsupported location field %q", id, locationField)
	}
	return Collection{
		id:            id,
		searchMode:    m,
		places:        places,
		index:         index,
		locationField: locationField,
	}, nil
}

// ID returns the logical collection id.
func (c Collection) ID() ID { return c.id }

// Mode returns the search mode this collection serves.
func (c Collection) Mode() mode.Mode { return c.searchMode }

// Places reports whether this is the location-augmented variant.
func (c Collection) Places() bool { return c.places }

// Index returns the physical index name.
func (c Collection) Index() string { return c.index }

// LocationField returns the attribute carrying location tags in this collection.
func (c Collection) LocationField() string { return c.locationField }

// Defaults returns the built-in four-collection layout.
func Defaults() []Collection {
	return []Collection{
		{id: Funders, searchMode: mode.Keyword, index: "funders:idx", locationField: LocationGeoStates},
		{id: FundersPlaces, searchMode: mode.Keyword, places: true, index: "funders-places:idx", locationField: LocationState},
		{id: FundersSemantic, searchMode: mode.Semantic, index: "funders-semantic:idx", locationField: LocationGeoStates},
		{
			id: FundersSemanticPlaces, searchMode: mode.Semantic, places: true,
			index: "funders-semantic-places:idx", locationField: LocationState,
		},
	}
}

type route struct {
	searchMode mode.Mode
	places     bool
}

// Catalog resolves (mode, places) routes and ids to collections. Read-only after construction.
type Catalog struct {
	byRoute map[route]Collection
	byID    map[ID]Collection
}

// NewCatalog indexes collections. Duplicate ids or routes are rejected;
// missing routes are not (they fail at resolution time).
func NewCatalog(cols ...Collection) (*Catalog, error) {
	c := &Catalog{
		byRoute: make(map[route]Collection, len(cols)),
		byID:    make(map[ID]Collection, len(cols)),
	}
	for _, col := range cols {
		if _, dup := c.byID[col.id]; dup {
			return nil, fmt.Errorf("duplicate collection id %q", col.id)
		}
		r := route{searchMode: col.searchMode, places: col.places}
		if prev, dup := c.byRoute[r]; dup {
			return nil, fmt.Errorf("collections %q and %q share route (%s, places=%t)", prev.id, col.id, r.searchMode, r.places)
		}
		c.byID[col.id] = col
		c.byRoute[r] = col
	}
	return c, nil
}

// DefaultCatalog returns a catalog over Defaults.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(Defaults()...)
	if err != nil {
		panic(err)
	}
	return c
}

// Route picks the collection for a mode, switching to the places variant
// when a location restriction is present.
func (c *Catalog) Route(m mode.Mode, places bool) (Collection, error) {
	col, ok := c.byRoute[route{searchMode: m, places: places}]
	if !ok {
		return Collection{}, fmt.Errorf("no collection for mode=%s places=%t", m, places)
	}
	return col, nil
}

// Get returns the collection with the given id.
func (c *Catalog) Get(id ID) (Collection, bool) {
	col, ok := c.byID[id]
	return col, ok
}

// All returns every collection ordered by id.
func (c *Catalog) All() []Collection {
	out := make([]Collection, 0, len(c.byID))
	for _, col := range c.byID {
		out = append(out, col)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Complete reports an error naming the first missing (mode, places) route.
func (c *Catalog) Complete() error {
	for _, m := range []mode.Mode{mode.Keyword, mode.Semantic} {
		for _, places := range []bool{false, true} {
			if _, err := c.Route(m, places); err != nil {
				return err
			}
		}
	}
	return nil
}
