/*******************************************************************************
*
* RecordKey and TimeBits supplement spec.md §4.11's description of a
* rewriting visibility consumer that "composes a per-record identity key
* from a fixed subset of variables (antenna pair, field id, time, etc.)".
* The source used raw floats as Rust HashMap keys; floats are not directly
* hashable in any meaningful, NaN-safe way, so this quantizes a float
* reading to a tolerance bucket before folding it into the key, matching
* spec.md §9's call for an explicit, named tolerance policy.
*
*******************************************************************************/

package uv

import (
	"fmt"
	"math"
	"strings"

	"github.com/nrao/rfio/dds"
	"github.com/nrao/rfio/rfioerr"
)

// TimeBits rounds the mantissa of t to k bits, where 2^-k is the largest
// power of two not above tolerancePartsIn, and returns the resulting bit
// pattern as a stable uint64 suitable for use in a composite map key. Each
// bucket therefore spans at most tolerancePartsIn of |t|. Two values within
// the same bucket produce the same bits; two close values on either side of
// a bucket edge do not. A non-positive tolerance, NaN or an infinity returns
// the raw bits of t.
func TimeBits(t float64, tolerancePartsIn float64) uint64 {
	bits := math.Float64bits(t)
	if tolerancePartsIn <= 0 || math.IsNaN(t) || math.IsInf(t, 0) {
		return bits
	}
	keep := int(math.Ceil(-math.Log2(tolerancePartsIn)))
	if keep >= 52 {
		return bits
	}
	if keep < 0 {
		keep = 0
	}
	drop := uint(52 - keep)
	bits += 1 << (drop - 1)
	return bits &^ (1<<drop - 1)
}

// RecordKey reads the named variables from the decoder's current record and
// folds them into a single comparable string, quantizing any floating-point
// variable via TimeBits(tolerancePartsIn). Integer and text variables
// contribute their exact value.
func (d *Decoder) RecordKey(names []string, tolerancePartsIn float64) (string, error) {
	const op = "uv.Decoder.RecordKey"
	var sb strings.Builder
	for i, name := range names {
		ref, ok := d.Ref(name)
		if !ok {
			return "", rfioerr.Newf(rfioerr.KindNotFound, op, name, "no such variable")
		}
		if i > 0 {
			sb.WriteByte('|')
		}
		v := &d.vars[int(ref)]
		switch v.info.Type {
		case dds.Int8, dds.Int16, dds.Int32, dds.Int64:
			val, err := intValue(v)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&sb, "%d", val)
		case dds.Float32:
			vals, err := dds.DecodeVector[float32](v.payload)
			if err != nil {
				return "", err
			}
			if len(vals) != 1 {
				return "", rfioerr.Newf(rfioerr.KindShapeMismatch, op, name, "expected exactly 1 element, got %d", len(vals))
			}
			fmt.Fprintf(&sb, "%x", TimeBits(float64(vals[0]), tolerancePartsIn))
		case dds.Float64:
			vals, err := dds.DecodeVector[float64](v.payload)
			if err != nil {
				return "", err
			}
			if len(vals) != 1 {
				return "", rfioerr.Newf(rfioerr.KindShapeMismatch, op, name, "expected exactly 1 element, got %d", len(vals))
			}
			fmt.Fprintf(&sb, "%x", TimeBits(vals[0], tolerancePartsIn))
		case dds.Text:
			sb.WriteString(string(v.payload))
		default:
			return "", rfioerr.Newf(rfioerr.KindInvalidArgument, op, name, "unsupported key variable type %v", v.info.Type)
		}
	}
	return sb.String(), nil
}

func intValue(v *variable) (int64, error) {
	const op = "uv.intValue"
	switch v.info.Type {
	case dds.Int8:
		vals, err := dds.DecodeVector[int8](v.payload)
		if err != nil {
			return 0, err
		}
		if len(vals) != 1 {
			return 0, rfioerr.Newf(rfioerr.KindShapeMismatch, op, v.info.Name, "expected exactly 1 element")
		}
		return int64(vals[0]), nil
	case dds.Int16:
		vals, err := dds.DecodeVector[int16](v.payload)
		if err != nil {
			return 0, err
		}
		if len(vals) != 1 {
			return 0, rfioerr.Newf(rfioerr.KindShapeMismatch, op, v.info.Name, "expected exactly 1 element")
		}
		return int64(vals[0]), nil
	case dds.Int32:
		vals, err := dds.DecodeVector[int32](v.payload)
		if err != nil {
			return 0, err
		}
		if len(vals) != 1 {
			return 0, rfioerr.Newf(rfioerr.KindShapeMismatch, op, v.info.Name, "expected exactly 1 element")
		}
		return int64(vals[0]), nil
	case dds.Int64:
		vals, err := dds.DecodeVector[int64](v.payload)
		if err != nil {
			return 0, err
		}
		if len(vals) != 1 {
			return 0, rfioerr.Newf(rfioerr.KindShapeMismatch, op, v.info.Name, "expected exactly 1 element")
		}
		return vals[0], nil
	default:
		return 0, rfioerr.Newf(rfioerr.KindInvalidArgument, op, v.info.Name, "not an integer variable")
	}
}
