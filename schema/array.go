package schema

import (
	"fmt"

	"github.com/arrdb/arrdb/errs"
	"github.com/arrdb/arrdb/format"
)

// ArraySchema is the full metadata of an array: its domain, attributes,
// cell/tile ordering, tile capacity, and dense/sparse mode. Schemas are
// constructed once, validated, and then shared as read-only references
// across every query that opens the array (spec §3 ownership rules).
type ArraySchema struct {
	Domain     Domain
	Attributes []Attribute
	CellOrder  format.CellOrder
	TileOrder  format.TileOrder
	// Capacity is the number of cells per tile for a sparse array; dense
	// arrays derive tile cell-count from the per-dimension TileExtent.
	Capacity uint64
	Mode     format.ArrayMode
}

// NewArraySchema validates and returns a schema, injecting the implicit
// __coords attribute for sparse arrays (spec §3 invariant) compressed with
// DOUBLE_DELTA by default unless the caller already supplied one.
func NewArraySchema(domain Domain, attrs []Attribute, cellOrder format.CellOrder, tileOrder format.TileOrder, capacity uint64, mode format.ArrayMode) (*ArraySchema, error) {
	s := &ArraySchema{
		Domain:     domain,
		Attributes: append([]Attribute(nil), attrs...),
		CellOrder:  cellOrder,
		TileOrder:  tileOrder,
		Capacity:   capacity,
		Mode:       mode,
	}

	if mode == format.ArraySparse {
		hasCoords := false

		for _, a := range s.Attributes {
			if a.Name == format.ReservedCoords {
				hasCoords = true
				break
			}
		}

		if !hasCoords {
			s.Attributes = append(s.Attributes, Attribute{
				Name:            format.ReservedCoords,
				Type:            domain.CoordType,
				ValuesPerCell:   domain.NDim(),
				CompressionType: format.CompressionDoubleDelta,
			})
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

// Validate checks the schema's invariants: a valid domain, a positive tile
// capacity for sparse arrays, disjoint/non-reserved attribute names, and
// (for sparse arrays) the presence of __coords.
func (s *ArraySchema) Validate() error {
	if err := s.Domain.Validate(); err != nil {
		return err
	}

	if s.Mode == format.ArraySparse && s.Capacity == 0 {
		return errs.ErrInvalidCapacity
	}

	seen := make(map[string]struct{}, len(s.Attributes))

	kvDomain := s.Domain.NDim() == 2 &&
		s.Domain.Dimensions[0].Name == format.ReservedKeyDim1 &&
		s.Domain.Dimensions[1].Name == format.ReservedKeyDim2

	for _, a := range s.Attributes {
		// Reserved names are disjoint from user attribute names (spec §3).
		// Two engine-built cases carry them: a sparse schema's injected
		// __coords, and __key/__key_type on the KV facade's domain
		// (dimensions __key_dim_1, __key_dim_2; see kv/schema.go). Every
		// other attribute, including any other use of a reserved name, goes
		// through Attribute.Validate, which rejects reserved names.
		switch {
		case a.Name == format.ReservedCoords && s.Mode == format.ArraySparse:
		case (a.Name == format.ReservedKey || a.Name == format.ReservedKeyType) && kvDomain:
		default:
			if err := a.Validate(); err != nil {
				return err
			}
		}

		if _, dup := seen[a.Name]; dup {
			return fmt.Errorf("attribute %q: %w", a.Name, errs.ErrDuplicateAttribute)
		}

		seen[a.Name] = struct{}{}
	}

	if s.Mode == format.ArraySparse {
		if _, ok := seen[format.ReservedCoords]; !ok {
			return fmt.Errorf("sparse array missing %s: %w", format.ReservedCoords, errs.ErrInvalidCellType)
		}
	}

	return nil
}

// AttributeByName returns the attribute named name, or false if none exists.
func (s *ArraySchema) AttributeByName(name string) (Attribute, bool) {
	for _, a := range s.Attributes {
		if a.Name == name {
			return a, true
		}
	}

	return Attribute{}, false
}

// AttributeNames returns every user-visible attribute name (including
// __coords for sparse arrays), in schema-declared order.
func (s *ArraySchema) AttributeNames() []string {
	names := make([]string, len(s.Attributes))
	for i, a := range s.Attributes {
		names[i] = a.Name
	}

	return names
}

// TileCapacity returns the number of cells in one tile: for sparse arrays
// this is Capacity; for dense arrays it is the product of per-dimension
// tile extents (falling back to the dimension's full extent when no tile
// extent was set).
func (s *ArraySchema) TileCapacity() uint64 {
	if s.Mode == format.ArraySparse {
		return s.Capacity
	}

	var n uint64 = 1

	for _, d := range s.Domain.Dimensions {
		extent := d.TileExtent
		if extent <= 0 {
			extent = d.Extent()
		}

		n *= uint64(extent)
	}

	return n
}
