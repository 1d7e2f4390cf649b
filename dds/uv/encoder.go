/*******************************************************************************
*
* Encoder writes a DDS-VIS record stream in the shape Decoder reads: a
* 4-byte preamble, then interleaved SIZE/DATA entries terminated by an
* END-OF-RECORD entry padded to the record-boundary alignment (8 bytes by
* default). This is the writer half spec.md
* §4.11 describes as needed by (but out of scope for) a rewriting
* visibility consumer; we implement it here so DDS-VIS is round-trippable
* like every other codec in this module.
*
*******************************************************************************/

package uv

import (
	"io"

	"github.com/nrao/rfio/bigend"
	"github.com/nrao/rfio/dds"
	"github.com/nrao/rfio/rfioerr"
)

// Encoder writes a visdata byte stream for a fixed, known set of variables.
type Encoder struct {
	w            io.Writer
	vars         []VarInfo
	byName       map[string]int
	cursor       int64
	eorAlignment int
}

// NewEncoder writes the 4-byte mixed-binary preamble and returns an Encoder
// ready to emit SIZE/DATA/EOR entries for vars, whose Ordinal fields must be
// dense starting at 0. eorAlignment is the record-boundary alignment WriteEOR
// pads to (spec.md §4.8); callers normally pass a dataset's
// Options().VisdataAlignment.
func NewEncoder(w io.Writer, vars []VarInfo, eorAlignment int) (*Encoder, error) {
	const op = "uv.NewEncoder"
	if len(vars) == 0 || len(vars) > maxVariables {
		return nil, rfioerr.Newf(rfioerr.KindInvalidArgument, op, "", "variable count must be 1-%d, got %d", maxVariables, len(vars))
	}
	if eorAlignment <= 0 {
		return nil, rfioerr.Newf(rfioerr.KindInvalidArgument, op, "", "eorAlignment must be positive, got %d", eorAlignment)
	}
	byName := make(map[string]int, len(vars))
	for i, v := range vars {
		if v.Ordinal != i {
			return nil, rfioerr.Newf(rfioerr.KindInvalidArgument, op, v.Name, "ordinals must be dense starting at 0")
		}
		byName[v.Name] = i
	}
	if _, err := w.Write(make([]byte, preambleBytes)); err != nil {
		return nil, rfioerr.New(rfioerr.KindIO, op, "", err)
	}
	return &Encoder{w: w, vars: vars, byName: byName, eorAlignment: eorAlignment}, nil
}

// Ref looks up a variable by name.
func (e *Encoder) Ref(name string) (VarRef, bool) {
	idx, ok := e.byName[name]
	return VarRef(idx), ok
}

func (e *Encoder) write(p []byte, op string) error {
	if _, err := e.w.Write(p); err != nil {
		return rfioerr.New(rfioerr.KindIO, op, "", err)
	}
	e.cursor += int64(len(p))
	return nil
}

func (e *Encoder) pad(to int64, op string) error {
	if rem := e.cursor % to; rem != 0 {
		return e.write(make([]byte, to-rem), op)
	}
	return nil
}

// WriteSize emits a SIZE entry declaring byteLen bytes for the variable
// ref. byteLen must be a multiple of the variable's element size.
func (e *Encoder) WriteSize(ref VarRef, byteLen int32) error {
	const op = "uv.Encoder.WriteSize"
	v := e.vars[int(ref)]
	if elemSize := int64(v.Type.ElemSize()); elemSize == 0 || int64(byteLen)%elemSize != 0 {
		return rfioerr.Newf(rfioerr.KindInvalidArgument, op, v.Name, "byte length %d is not a multiple of element size", byteLen)
	}
	hdr := []byte{byte(v.Ordinal), 0, 0, 0}
	if err := e.write(hdr, op); err != nil {
		return err
	}
	lenBuf := make([]byte, bigend.SizeInt32)
	bigend.PutInt32(lenBuf, byteLen)
	return e.write(lenBuf, op)
}

// WriteData encodes values and emits a DATA entry for the variable ref,
// padding the cursor to the variable's type alignment first.
func WriteData[T any](e *Encoder, ref VarRef, values []T) error {
	const op = "uv.Encoder.WriteData"
	v := e.vars[int(ref)]
	want, ok := dds.TypeOf[T]()
	if !ok || want != v.Type {
		return rfioerr.Newf(rfioerr.KindTypeMismatch, op, v.Name, "variable has type %v", v.Type)
	}
	hdr := []byte{byte(v.Ordinal), 0, 1, 0}
	if err := e.write(hdr, op); err != nil {
		return err
	}
	if err := e.pad(int64(v.Type.Alignment()), op); err != nil {
		return err
	}
	payload, err := dds.EncodeVector(values)
	if err != nil {
		return err
	}
	return e.write(payload, op)
}

// WriteEOR emits an END-OF-RECORD entry and pads the cursor to the next
// multiple of the eorAlignment passed to NewEncoder.
func (e *Encoder) WriteEOR() error {
	const op = "uv.Encoder.WriteEOR"
	hdr := []byte{0, 0, 2, 0}
	if err := e.write(hdr, op); err != nil {
		return err
	}
	return e.pad(int64(e.eorAlignment), op)
}

// Len returns the number of bytes written after the preamble; combined with
// preambleBytes this is the value to store in a dataset's vislen item.
func (e *Encoder) Len() int64 { return e.cursor }
