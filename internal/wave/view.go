package wave

import (
	"fmt"
	"strings"

	"cartaudit/internal/parser/numeric"
)

// Field names a displayed column independent of its position.
type Field string

const (
	FieldRoute    Field = "route_code"
	FieldLocation Field = "location"
	FieldCarts    Field = "carts"
	FieldBags     Field = "bags"
	FieldOVs      Field = "ovs"
	FieldDeparted Field = "departed"
)

// View selects which columns of a Row are shown.
type View int

const (
	// Buffer shows route, location and carts.
	Buffer View = iota
	// BagCount shows every count plus an empty Departed column for sign-off.
	BagCount
)

var viewFields = map[View][]Field{
	Buffer:   {FieldRoute, FieldLocation, FieldCarts},
	BagCount: {FieldRoute, FieldLocation, FieldCarts, FieldBags, FieldOVs, FieldDeparted},
}

var fieldTitles = map[Field]string{
	FieldRoute:    "Route Code",
	FieldLocation: "Location",
	FieldCarts:    "Carts",
	FieldBags:     "Bags",
	FieldOVs:      "OVs",
	FieldDeparted: "Departed",
}

// ParseView accepts "buffer" or "bagcount" (also "bag-count", "bags").
func ParseView(s string) (View, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buffer":
		return Buffer, nil
	case "bagcount", "bag-count", "bag_count", "bags":
		return BagCount, nil
	}
	return 0, fmt.Errorf("unknown view %q (want buffer or bagcount)", s)
}

func (v View) String() string {
	if v == BagCount {
		return "bagcount"
	}
	return "buffer"
}

// Fields returns the columns of v in display order.
func (v View) Fields() []Field {
	return viewFields[v]
}

// Header returns the column titles of v.
func (v View) Header() []string {
	fs := v.Fields()
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = fieldTitles[f]
	}
	return out
}

// Cells renders r in the columns of v.
func (v View) Cells(r Row) []string {
	fs := v.Fields()
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = r.Value(f)
	}
	return out
}

// Value renders a single field of r. FieldDeparted is always empty.
func (r Row) Value(f Field) string {
	switch f {
	case FieldRoute:
		return r.RouteCode
	case FieldLocation:
		return r.Location
	case FieldCarts:
		return fmt.Sprint(r.Carts)
	case FieldBags:
		return numeric.Format(r.Bags)
	case FieldOVs:
		return numeric.Format(r.OVs)
	}
	return ""
}

// Emphasis marks a cell the floor team must look at.
type Emphasis int

const (
	EmphasisNone Emphasis = iota
	// EmphasisBag flags a route with exactly one bag.
	EmphasisBag
	// EmphasisOVs flags a route with exactly three over-volume units.
	EmphasisOVs
)

// Highlight returns the emphasis of field f in r. Only the bags and ovs
// fields are ever flagged, whatever their column position.
func Highlight(f Field, r Row) Emphasis {
	switch {
	case f == FieldBags && r.Bags == 1:
		return EmphasisBag
	case f == FieldOVs && r.OVs == 3:
		return EmphasisOVs
	}
	return EmphasisNone
}
