/*******************************************************************************
*
* FITS-DEC: the streaming HDU decoder (spec.md §4.9). A one-pass state
* machine over a single 2880-byte block buffer, record by record in the
* header regions and block by block in the data region. Grounded on
* dds/header.go's record-loop shape, generalized from a flat item stream to
* a state machine with header/data/special phases.
*
*******************************************************************************/

package rfits

import (
	"bytes"
	"io"

	"github.com/nrao/rfio/eofread"
	"github.com/nrao/rfio/rfioerr"
)

type decState int

const (
	stBeginning decState = iota
	stSizingHeaders
	stOtherHeaders
	stPendingEndOfHeaders
	stData
	stNewHdu
	stSpecialRecords
	stDone
)

// EventKind discriminates the variants of Event.
type EventKind int

const (
	EventHeader EventKind = iota
	EventEndOfHeaders
	EventData
	EventSpecialRecordData
)

// Event is one unit of streaming decoder output (spec.md §6.1).
type Event struct {
	Kind          EventKind
	Header        []byte // 80 bytes, EventHeader only
	DataByteCount int64  // EventEndOfHeaders only
	Data          []byte // EventData / EventSpecialRecordData
}

// Decoder streams HDU events from a non-seekable byte source.
type Decoder struct {
	r     io.Reader
	state decState

	block     [BlockSize]byte
	recordIdx int
	offset    int64

	hduIndex int

	bitpix      Bitpix
	bitpixSet   bool
	naxisCount  int
	naxisSet    bool
	naxis       []int64
	groupsTrue  bool
	pcount      int64
	gcount      int64

	pendingDataByteCount int64
	dataRemaining        int64
}

// New returns a Decoder reading from r.
func New(r io.Reader) *Decoder {
	return &Decoder{r: r, state: stBeginning, gcount: 1}
}

// IntoInner returns the underlying reader, abandoning further decoding.
func (d *Decoder) IntoInner() io.Reader { return d.r }

// Offset returns the number of bytes consumed from the underlying stream.
func (d *Decoder) Offset() int64 { return d.offset }

func canonicalSimplePrefix() []byte {
	b := bytes.Repeat([]byte{' '}, 30)
	copy(b, "SIMPLE")
	b[8] = '='
	b[29] = 'T'
	return b
}

func canonicalEndRecord() []byte {
	b := bytes.Repeat([]byte{' '}, RecordSize)
	copy(b, "END")
	return b
}

func (d *Decoder) resetHduLocal() {
	d.bitpix = 0
	d.bitpixSet = false
	d.naxisCount = 0
	d.naxisSet = false
	d.naxis = nil
	d.groupsTrue = false
	d.pcount = 0
	d.gcount = 1
}

// loadBlock fills the block buffer. ok is false on a clean EOF; a non-nil
// err distinguishes a truncated (mid-block) read from a clean one, which
// the caller interprets according to the current state.
func (d *Decoder) loadBlock() (ok bool, err error) {
	full, err := eofread.ExactRead(d.r, d.block[:])
	if err != nil {
		return false, err
	}
	if full {
		d.offset += BlockSize
	}
	d.recordIdx = 0
	return full, nil
}

func (d *Decoder) currentRecord() ([]byte, error) {
	const op = "rfits.Decoder.currentRecord"
	if d.recordIdx >= BlockSize/RecordSize {
		ok, err := d.loadBlock()
		if err != nil {
			return nil, rfioerr.New(rfioerr.KindUnexpectedEOF, op, "", err)
		}
		if !ok {
			return nil, rfioerr.New(rfioerr.KindUnexpectedEOF, op, "", nil)
		}
	}
	start := d.recordIdx * RecordSize
	return d.block[start : start+RecordSize], nil
}

func (d *Decoder) advanceRecord() {
	d.recordIdx++
}

// Next returns the next decoder event, or (nil, nil) once the stream ends
// cleanly at a point where ending is legal.
func (d *Decoder) Next() (*Event, error) {
	const op = "rfits.Decoder.Next"
	for {
		switch d.state {
		case stBeginning:
			ok, err := d.loadBlock()
			if err != nil {
				return nil, rfioerr.New(rfioerr.KindUnexpectedEOF, op, "", err)
			}
			if !ok {
				d.state = stDone
				return nil, nil
			}
			rec, err := d.currentRecord()
			if err != nil {
				return nil, err
			}
			if !bytes.Equal(rec[:30], canonicalSimplePrefix()) {
				return nil, rfioerr.New(rfioerr.KindMalformed, op, "", nil)
			}
			d.resetHduLocal()
			d.hduIndex = 0
			d.state = stSizingHeaders
			ev := &Event{Kind: EventHeader, Header: append([]byte(nil), rec...)}
			d.advanceRecord()
			return ev, nil

		case stSizingHeaders:
			rec, err := d.currentRecord()
			if err != nil {
				return nil, err
			}
			kw, err := keywordOf(rec)
			if err != nil {
				return nil, err
			}
			switch {
			case kw == "END":
				return d.emitEndRecord(rec)
			case kw == "BITPIX":
				v, err := parseFixedInt(rec, kw)
				if err != nil {
					return nil, err
				}
				b, ok := ValidBitpix(v)
				if !ok {
					return nil, rfioerr.Newf(rfioerr.KindMalformed, op, kw, "unrecognised BITPIX value %d", v)
				}
				d.bitpix = b
				d.bitpixSet = true
				ev := &Event{Kind: EventHeader, Header: append([]byte(nil), rec...)}
				d.advanceRecord()
				return ev, nil
			case kw == "NAXIS":
				v, err := parseFixedInt(rec, kw)
				if err != nil {
					return nil, err
				}
				if v < 0 || v > 999 {
					return nil, rfioerr.Newf(rfioerr.KindMalformed, op, kw, "NAXIS %d out of range [0,999]", v)
				}
				d.naxisCount = int(v)
				d.naxisSet = true
				d.naxis = make([]int64, 0, d.naxisCount)
				ev := &Event{Kind: EventHeader, Header: append([]byte(nil), rec...)}
				d.advanceRecord()
				return ev, nil
			case naxisOrdinal(kw) > 0:
				n := naxisOrdinal(kw)
				if !d.naxisSet || n != len(d.naxis)+1 {
					return nil, rfioerr.Newf(rfioerr.KindMalformed, op, kw, "NAXIS%d out of order", n)
				}
				v, err := parseFixedInt(rec, kw)
				if err != nil {
					return nil, err
				}
				d.naxis = append(d.naxis, v)
				ev := &Event{Kind: EventHeader, Header: append([]byte(nil), rec...)}
				d.advanceRecord()
				return ev, nil
			default:
				if !d.naxisSet || len(d.naxis) < d.naxisCount {
					return nil, rfioerr.Newf(rfioerr.KindMalformed, op, kw, "expected BITPIX/NAXIS/NAXISn, found %q", kw)
				}
				d.state = stOtherHeaders
				continue
			}

		case stOtherHeaders:
			rec, err := d.currentRecord()
			if err != nil {
				return nil, err
			}
			kw, err := keywordOf(rec)
			if err != nil {
				return nil, err
			}
			switch kw {
			case "END":
				return d.emitEndRecord(rec)
			case "GROUPS":
				v, err := parseFixedLogical(rec, kw)
				if err != nil {
					return nil, err
				}
				d.groupsTrue = v
			case "PCOUNT":
				v, err := parseFixedInt(rec, kw)
				if err != nil {
					return nil, err
				}
				if d.honorGroupsConvention() {
					d.pcount = v
				}
			case "GCOUNT":
				v, err := parseFixedInt(rec, kw)
				if err != nil {
					return nil, err
				}
				if d.honorGroupsConvention() {
					d.gcount = v
				}
			}
			ev := &Event{Kind: EventHeader, Header: append([]byte(nil), rec...)}
			d.advanceRecord()
			return ev, nil

		case stPendingEndOfHeaders:
			naxis := d.naxis
			if d.hduIndex == 0 && d.groupsTrue && len(naxis) > 0 {
				naxis = naxis[1:]
			}
			hdu := ParsedHdu{Bitpix: d.bitpix, Pcount: d.pcount, Gcount: d.gcount, Naxis: naxis}
			dataLen, err := hdu.DataByteLen()
			if err != nil {
				return nil, err
			}
			d.dataRemaining = dataLen
			if dataLen > 0 {
				d.state = stData
			} else {
				d.hduIndex++
				d.state = stNewHdu
			}
			return &Event{Kind: EventEndOfHeaders, DataByteCount: dataLen}, nil

		case stData:
			if d.dataRemaining <= 0 {
				d.hduIndex++
				d.resetHduLocal()
				d.state = stNewHdu
				continue
			}
			n := int64(BlockSize)
			if d.dataRemaining < n {
				n = d.dataRemaining
			}
			full, err := eofread.ExactRead(d.r, d.block[:n])
			if err != nil {
				return nil, rfioerr.New(rfioerr.KindUnexpectedEOF, op, "", err)
			}
			if !full {
				return nil, rfioerr.New(rfioerr.KindUnexpectedEOF, op, "", nil)
			}
			d.offset += n
			d.dataRemaining -= n
			if d.dataRemaining == 0 {
				// Consume the remainder of the final padded block.
				padded := roundUpBlock(n)
				if pad := padded - n; pad > 0 {
					if _, err := io.CopyN(io.Discard, d.r, pad); err != nil {
						return nil, rfioerr.New(rfioerr.KindUnexpectedEOF, op, "", err)
					}
					d.offset += pad
				}
			}
			return &Event{Kind: EventData, Data: append([]byte(nil), d.block[:n]...)}, nil

		case stNewHdu:
			ok, err := d.loadBlock()
			if err != nil {
				return nil, rfioerr.New(rfioerr.KindUnexpectedEOF, op, "", err)
			}
			if !ok {
				d.state = stDone
				return nil, nil
			}
			rec, err := d.currentRecord()
			if err != nil {
				return nil, err
			}
			if bytes.Equal(rec[:10], []byte("XTENSION= ")) {
				d.resetHduLocal()
				d.state = stSizingHeaders
				ev := &Event{Kind: EventHeader, Header: append([]byte(nil), rec...)}
				d.advanceRecord()
				return ev, nil
			}
			d.state = stSpecialRecords
			d.recordIdx = BlockSize / RecordSize
			return &Event{Kind: EventSpecialRecordData, Data: append([]byte(nil), d.block[:]...)}, nil

		case stSpecialRecords:
			ok, err := d.loadBlock()
			if err != nil {
				return nil, rfioerr.New(rfioerr.KindUnexpectedEOF, op, "", err)
			}
			if !ok {
				d.state = stDone
				return nil, nil
			}
			d.recordIdx = BlockSize / RecordSize
			return &Event{Kind: EventSpecialRecordData, Data: append([]byte(nil), d.block[:]...)}, nil

		case stDone:
			return nil, nil
		}
	}
}

func (d *Decoder) emitEndRecord(rec []byte) (*Event, error) {
	const op = "rfits.Decoder.emitEndRecord"
	if !bytes.Equal(rec, canonicalEndRecord()) {
		return nil, rfioerr.New(rfioerr.KindMalformed, op, "END", nil)
	}
	if !d.bitpixSet || !d.naxisSet || len(d.naxis) < d.naxisCount {
		return nil, rfioerr.New(rfioerr.KindMalformed, op, "END", nil)
	}
	ev := &Event{Kind: EventHeader, Header: append([]byte(nil), rec...)}
	d.advanceRecord()
	d.state = stPendingEndOfHeaders
	return ev, nil
}

// honorGroupsConvention reports whether PCOUNT/GCOUNT apply per spec.md
// §4.9: HDU 0 after GROUPS=T, or any non-primary HDU.
func (d *Decoder) honorGroupsConvention() bool {
	return d.hduIndex > 0 || d.groupsTrue
}

// naxisOrdinal returns n for a keyword of the form "NAXISn", or 0 if kw is
// not such a keyword (including the bare "NAXIS" keyword itself).
func naxisOrdinal(kw string) int {
	if len(kw) <= 5 || kw[:5] != "NAXIS" {
		return 0
	}
	n := 0
	for _, c := range kw[5:] {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}
