/*******************************************************************************
*
* Package uv implements DDS-VIS (spec.md §4.8): the visibility stream
* sub-format layered over a DDS's `vartable`/`vislen`/`ncorr` small items and
* its `visdata` large item. Grounded on the same record-loop shape
* dds/header.go uses for DDS-HDR -- read a small fixed header, dispatch on a
* tag byte, advance a tracked cursor -- applied here to a three-entry-type
* interleave instead of a flat record stream.
*
*******************************************************************************/

package uv

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nrao/rfio/bigend"
	"github.com/nrao/rfio/dds"
	"github.com/nrao/rfio/eofread"
	"github.com/nrao/rfio/rfioerr"
)

const maxVariables = 256
const preambleBytes = 4

// VarInfo describes one visibility variable's static shape.
type VarInfo struct {
	Name    string
	Ordinal int
	Type    dds.ElemType
}

// VarRef is an opaque, stable reference to a visibility variable, obtained
// from Decoder.Ref.
type VarRef int

type variable struct {
	info    VarInfo
	payload []byte
}

// Decoder reads the interleaved SIZE/DATA/EOR record stream of a DDS-VIS
// visdata item, per spec.md §4.8.
type Decoder struct {
	vars   []variable
	byName map[string]int

	ncorr int64

	r       io.Reader
	closeFn func() error

	cursor       int64
	effectiveLen int64
	eorAlignment int
}

func abbrevType(c byte) (dds.ElemType, bool) {
	switch c {
	case 'b':
		return dds.Int8, true
	case 'j':
		return dds.Int16, true
	case 'i':
		return dds.Int32, true
	case 'l':
		return dds.Int64, true
	case 'r':
		return dds.Float32, true
	case 'd':
		return dds.Float64, true
	case 'c':
		return dds.Complex64, true
	case 'a':
		return dds.Text, true
	default:
		return 0, false
	}
}

func parseVartable(text string) ([]VarInfo, error) {
	const op = "uv.parseVartable"
	var vars []VarInfo
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, " ", 2)
		if len(parts) != 2 || len(parts[0]) != 1 {
			return nil, rfioerr.Newf(rfioerr.KindMalformed, op, "", "malformed vartable line %q", line)
		}
		t, ok := abbrevType(parts[0][0])
		if !ok {
			return nil, rfioerr.Newf(rfioerr.KindMalformed, op, "", "unrecognised variable abbreviation %q", parts[0])
		}
		if len(vars) >= maxVariables {
			return nil, rfioerr.Newf(rfioerr.KindMalformed, op, "", "more than %d variables", maxVariables)
		}
		vars = append(vars, VarInfo{Name: strings.TrimSpace(parts[1]), Ordinal: len(vars), Type: t})
	}
	return vars, nil
}

func acceptableObstype(s string) bool {
	return strings.HasPrefix(s, "auto") || strings.HasPrefix(s, "cross") || strings.HasPrefix(s, "mixed")
}

// Open binds a Decoder to ds, reading obstype, vislen, ncorr and vartable,
// then positions the visdata stream past its 4-byte preamble.
func Open(ds *dds.Dataset) (*Decoder, error) {
	const op = "uv.Open"

	obstypeH, found, err := ds.Get("obstype")
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, rfioerr.New(rfioerr.KindNotFound, op, "obstype", nil)
	}
	obstype, err := obstypeH.ReadText()
	if err != nil {
		return nil, err
	}
	if !acceptableObstype(obstype) {
		return nil, rfioerr.Newf(rfioerr.KindMalformed, op, "obstype", "unrecognised obstype %q", obstype)
	}

	vislenH, found, err := ds.Get("vislen")
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, rfioerr.New(rfioerr.KindNotFound, op, "vislen", nil)
	}
	vislen, err := dds.ReadScalar[int64](vislenH)
	if err != nil {
		return nil, err
	}

	ncorrH, found, err := ds.Get("ncorr")
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, rfioerr.New(rfioerr.KindNotFound, op, "ncorr", nil)
	}
	ncorr, err := dds.ReadScalar[int64](ncorrH)
	if err != nil {
		return nil, err
	}

	vartableH, found, err := ds.Get("vartable")
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, rfioerr.New(rfioerr.KindNotFound, op, "vartable", nil)
	}
	vartableText, err := vartableH.ReadText()
	if err != nil {
		return nil, err
	}
	varInfos, err := parseVartable(vartableText)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(ds.Dir(), "visdata"))
	if err != nil {
		return nil, rfioerr.New(rfioerr.KindIO, op, "visdata", err)
	}
	if _, err := io.CopyN(io.Discard, f, preambleBytes); err != nil {
		f.Close()
		return nil, rfioerr.New(rfioerr.KindUnexpectedEOF, op, "visdata", err)
	}

	vars := make([]variable, len(varInfos))
	byName := make(map[string]int, len(varInfos))
	for i, vi := range varInfos {
		vars[i] = variable{info: vi}
		byName[vi.Name] = i
	}

	return &Decoder{
		vars:         vars,
		byName:       byName,
		ncorr:        ncorr,
		r:            bufio.NewReader(f),
		closeFn:      f.Close,
		effectiveLen: vislen - preambleBytes,
		eorAlignment: ds.Options().VisdataAlignment,
	}, nil
}

// Close releases the underlying visdata file.
func (d *Decoder) Close() error { return d.closeFn() }

// NCorr returns the ncorr scalar read at construction.
func (d *Decoder) NCorr() int64 { return d.ncorr }

// Variables returns the static shape of every visibility variable, in
// ordinal order.
func (d *Decoder) Variables() []VarInfo {
	out := make([]VarInfo, len(d.vars))
	for i, v := range d.vars {
		out[i] = v.info
	}
	return out
}

// Ref looks up a variable by name.
func (d *Decoder) Ref(name string) (VarRef, bool) {
	idx, ok := d.byName[name]
	return VarRef(idx), ok
}

// Info returns a variable's static shape.
func (d *Decoder) Info(ref VarRef) VarInfo { return d.vars[ref].info }

func (d *Decoder) readExact(buf []byte, op string) error {
	full, err := eofread.ExactRead(d.r, buf)
	if err != nil {
		return err
	}
	if !full {
		return rfioerr.Newf(rfioerr.KindUnexpectedEOF, op, "", "truncated visdata stream")
	}
	return nil
}

func (d *Decoder) discard(n int64, op string) error {
	if n <= 0 {
		return nil
	}
	if _, err := io.CopyN(io.Discard, d.r, n); err != nil {
		return rfioerr.New(rfioerr.KindUnexpectedEOF, op, "", err)
	}
	return nil
}

// NextRecord advances the decoder through SIZE and DATA entries until an
// END-OF-RECORD entry or the effective end of the stream. It returns true
// when a record boundary was reached, false once the cursor has reached the
// effective visdata length (spec.md §4.8's authoritative end-of-data
// signal, independent of the underlying file's actual EOF).
func (d *Decoder) NextRecord() (bool, error) {
	const op = "uv.Decoder.NextRecord"
	for {
		if d.cursor >= d.effectiveLen {
			return false, nil
		}

		hdr := make([]byte, 4)
		if err := d.readExact(hdr, op); err != nil {
			return false, err
		}
		d.cursor += 4

		ordinal := int(hdr[0])
		entryType := hdr[2]

		switch entryType {
		case 0: // SIZE
			if ordinal < 0 || ordinal >= len(d.vars) {
				return false, rfioerr.Newf(rfioerr.KindMalformed, op, "", "SIZE entry references unknown ordinal %d", ordinal)
			}
			lenBuf := make([]byte, bigend.SizeInt32)
			if err := d.readExact(lenBuf, op); err != nil {
				return false, err
			}
			d.cursor += 4
			length := bigend.Int32(lenBuf)
			v := &d.vars[ordinal]
			elemSize := int64(v.info.Type.ElemSize())
			if length < 0 || elemSize == 0 || int64(length)%elemSize != 0 {
				return false, rfioerr.Newf(rfioerr.KindMalformed, op, v.info.Name,
					"SIZE length %d invalid for element size %d", length, elemSize)
			}
			v.payload = make([]byte, length)

		case 1: // DATA
			if ordinal < 0 || ordinal >= len(d.vars) {
				return false, rfioerr.Newf(rfioerr.KindMalformed, op, "", "DATA entry references unknown ordinal %d", ordinal)
			}
			v := &d.vars[ordinal]
			align := int64(v.info.Type.Alignment())
			if rem := d.cursor % align; rem != 0 {
				pad := align - rem
				if err := d.discard(pad, op); err != nil {
					return false, err
				}
				d.cursor += pad
			}
			if err := d.readExact(v.payload, op); err != nil {
				return false, err
			}
			d.cursor += int64(len(v.payload))

		case 2: // END-OF-RECORD
			align := int64(d.eorAlignment)
			if rem := d.cursor % align; rem != 0 {
				pad := align - rem
				if err := d.discard(pad, op); err != nil {
					return false, err
				}
				d.cursor += pad
			}
			return true, nil

		default:
			return false, rfioerr.Newf(rfioerr.KindMalformed, op, "", "unrecognised entry type %d", entryType)
		}
	}
}

// GetVector returns the current payload of the variable ref, decoded as a
// fresh []T. The variable's declared type must match T exactly.
func GetVector[T any](d *Decoder, ref VarRef) ([]T, error) {
	const op = "uv.GetVector"
	v := &d.vars[int(ref)]
	want, ok := dds.TypeOf[T]()
	if !ok {
		return nil, rfioerr.Newf(rfioerr.KindInvalidArgument, op, v.info.Name, "unsupported element type")
	}
	if v.info.Type != want {
		return nil, rfioerr.Newf(rfioerr.KindTypeMismatch, op, v.info.Name,
			"variable has type %v, requested %v", v.info.Type, want)
	}
	return dds.DecodeVector[T](v.payload)
}

// GetScalar is GetVector for a variable currently holding exactly one
// element.
func GetScalar[T any](d *Decoder, ref VarRef) (T, error) {
	const op = "uv.GetScalar"
	var zero T
	vals, err := GetVector[T](d, ref)
	if err != nil {
		return zero, err
	}
	if len(vals) != 1 {
		return zero, rfioerr.Newf(rfioerr.KindShapeMismatch, op, d.vars[int(ref)].info.Name,
			"variable holds %d elements, expected exactly 1", len(vals))
	}
	return vals[0], nil
}

// GetText returns the current payload of a Text variable as a string.
func GetText(d *Decoder, ref VarRef) (string, error) {
	const op = "uv.GetText"
	v := &d.vars[int(ref)]
	if v.info.Type != dds.Text {
		return "", rfioerr.Newf(rfioerr.KindTypeMismatch, op, v.info.Name, "variable has type %v, expected text", v.info.Type)
	}
	return string(v.payload), nil
}
