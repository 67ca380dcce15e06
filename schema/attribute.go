package schema

import (
	"fmt"

	"github.com/arrdb/arrdb/errs"
	"github.com/arrdb/arrdb/format"
)

// Attribute is a named value stream over cells: a scalar type, a
// values-per-cell count (format.VarLen for variable-length), and the codec
// choice plus level used to compress its tiles.
type Attribute struct {
	Name            string
	Type            format.CellType
	ValuesPerCell   int // format.VarLen (-1) means variable-length
	CompressionType format.CompressionType
	CompressionLvl  int
}

// IsVarLen reports whether this attribute is variable-sized.
func (a Attribute) IsVarLen() bool {
	return a.ValuesPerCell == format.VarLen || a.Type == format.CellTypeChar
}

// CellByteSize returns the fixed per-cell byte size for a fixed-size
// attribute, or 0 for a variable-length attribute.
func (a Attribute) CellByteSize() int {
	if a.IsVarLen() {
		return 0
	}

	return a.Type.ByteWidth() * a.ValuesPerCell
}

// Validate checks the attribute's internal consistency.
func (a Attribute) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("attribute: %w", errs.ErrInvalidCellType)
	}

	if format.IsReservedName(a.Name) {
		return fmt.Errorf("attribute %q: %w", a.Name, errs.ErrReservedAttributeName)
	}

	if a.Type == format.CellTypeInvalid {
		return fmt.Errorf("attribute %q: %w", a.Name, errs.ErrInvalidCellType)
	}

	if !a.IsVarLen() && a.ValuesPerCell < 1 {
		return fmt.Errorf("attribute %q: %w", a.Name, errs.ErrInvalidCellType)
	}

	return nil
}
