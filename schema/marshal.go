package schema

import (
	"encoding/binary"
	"fmt"

	"github.com/arrdb/arrdb/errs"
	"github.com/arrdb/arrdb/format"
)

// SchemaVersion is the current on-disk array-metadata format version.
// Readers reject a footer whose major component differs, mirroring the
// fragment metadata footer's version check (spec §6.3).
const SchemaVersion = 1

// Bytes serializes the schema into the versioned binary layout stored as
// __array_metadata.tdb (spec §6.4): version, mode, coord type, cell order,
// tile order, capacity, dimensions, then attributes.
func (s *ArraySchema) Bytes() []byte {
	buf := make([]byte, 0, 256)

	var tmp [8]byte

	binary.LittleEndian.PutUint16(tmp[:2], SchemaVersion)
	buf = append(buf, tmp[:2]...)
	buf = append(buf, byte(s.Mode), byte(s.Domain.CoordType), byte(s.CellOrder), byte(s.TileOrder))

	binary.LittleEndian.PutUint64(tmp[:], s.Capacity)
	buf = append(buf, tmp[:]...)

	binary.LittleEndian.PutUint32(tmp[:4], uint32(len(s.Domain.Dimensions)))
	buf = append(buf, tmp[:4]...)

	for _, d := range s.Domain.Dimensions {
		buf = appendString(buf, d.Name)
		binary.LittleEndian.PutUint64(tmp[:], uint64(d.Low))
		buf = append(buf, tmp[:]...)
		binary.LittleEndian.PutUint64(tmp[:], uint64(d.High))
		buf = append(buf, tmp[:]...)
		binary.LittleEndian.PutUint64(tmp[:], uint64(d.TileExtent))
		buf = append(buf, tmp[:]...)
	}

	binary.LittleEndian.PutUint32(tmp[:4], uint32(len(s.Attributes)))
	buf = append(buf, tmp[:4]...)

	for _, a := range s.Attributes {
		buf = appendString(buf, a.Name)
		buf = append(buf, byte(a.Type))

		var vpc int32 = int32(a.ValuesPerCell)
		binary.LittleEndian.PutUint32(tmp[:4], uint32(vpc))
		buf = append(buf, tmp[:4]...)

		buf = append(buf, byte(a.CompressionType))
		binary.LittleEndian.PutUint32(tmp[:4], uint32(a.CompressionLvl))
		buf = append(buf, tmp[:4]...)
	}

	return buf
}

func appendString(buf []byte, s string) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(len(s)))
	buf = append(buf, tmp[:]...)
	buf = append(buf, s...)

	return buf
}

func readString(data []byte, pos int) (string, int, error) {
	if pos+4 > len(data) {
		return "", 0, errs.ErrInvalidFooterCRC
	}

	n := int(binary.LittleEndian.Uint32(data[pos : pos+4]))
	pos += 4

	if pos+n > len(data) {
		return "", 0, errs.ErrInvalidFooterCRC
	}

	s := string(data[pos : pos+n])
	pos += n

	return s, pos, nil
}

// ParseArraySchema deserializes a schema previously produced by Bytes.
func ParseArraySchema(data []byte) (*ArraySchema, error) {
	if len(data) < 13 {
		return nil, fmt.Errorf("array metadata: %w", errs.ErrInvalidFooterCRC)
	}

	version := binary.LittleEndian.Uint16(data[0:2])
	if version != SchemaVersion {
		return nil, errs.ErrInvalidFooterVersion
	}

	mode := format.ArrayMode(data[2])
	coordType := format.CellType(data[3])
	cellOrder := format.CellOrder(data[4])
	tileOrder := format.TileOrder(data[5])
	capacity := binary.LittleEndian.Uint64(data[6:14])

	pos := 14

	ndim := int(binary.LittleEndian.Uint32(data[pos : pos+4]))
	pos += 4

	dims := make([]Dimension, 0, ndim)

	for i := 0; i < ndim; i++ {
		name, next, err := readString(data, pos)
		if err != nil {
			return nil, err
		}
		pos = next

		if pos+24 > len(data) {
			return nil, errs.ErrInvalidFooterCRC
		}

		low := int64(binary.LittleEndian.Uint64(data[pos : pos+8]))
		high := int64(binary.LittleEndian.Uint64(data[pos+8 : pos+16]))
		tileExtent := int64(binary.LittleEndian.Uint64(data[pos+16 : pos+24]))
		pos += 24

		dims = append(dims, Dimension{Name: name, Low: low, High: high, TileExtent: tileExtent})
	}

	if pos+4 > len(data) {
		return nil, errs.ErrInvalidFooterCRC
	}

	nattr := int(binary.LittleEndian.Uint32(data[pos : pos+4]))
	pos += 4

	attrs := make([]Attribute, 0, nattr)

	for i := 0; i < nattr; i++ {
		name, next, err := readString(data, pos)
		if err != nil {
			return nil, err
		}
		pos = next

		if pos+9 > len(data) {
			return nil, errs.ErrInvalidFooterCRC
		}

		cellType := format.CellType(data[pos])
		pos++

		vpc := int32(binary.LittleEndian.Uint32(data[pos : pos+4]))
		pos += 4

		compType := format.CompressionType(data[pos])
		pos++

		compLevel := int32(binary.LittleEndian.Uint32(data[pos : pos+4]))
		pos += 4

		attrs = append(attrs, Attribute{
			Name:            name,
			Type:            cellType,
			ValuesPerCell:   int(vpc),
			CompressionType: compType,
			CompressionLvl:  int(compLevel),
		})
	}

	s := &ArraySchema{
		Domain:     Domain{CoordType: coordType, Dimensions: dims},
		Attributes: attrs,
		CellOrder:  cellOrder,
		TileOrder:  tileOrder,
		Capacity:   capacity,
		Mode:       mode,
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}
