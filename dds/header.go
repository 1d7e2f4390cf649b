/*******************************************************************************
*
* DDS-HDR: the small-item header file codec (spec.md §4.5). Grounded on
* rpm/header.go's tagged index-record layout (name/type/offset/count
* records over a shared data area) -- generalized here from RPM's flat tag
* table to DDS's self-contained, 16-byte-aligned record stream where each
* record carries its own payload rather than an offset into a shared area.
*
*******************************************************************************/

package dds

import (
	"bytes"
	"io"
	"sort"

	"github.com/nrao/rfio/bigend"
	"github.com/nrao/rfio/eofread"
	"github.com/nrao/rfio/rfioerr"
)

const headerRecordAlign = 16
const maxNameBytes = 15
const maxPackedLen = 255

// SmallItem is the in-memory representation of one header-file record: a
// type tag and the raw element bytes.
type SmallItem struct {
	Type    ElemType
	Payload []byte
}

// ReadHeader parses a complete header file into a name -> SmallItem map. It
// consumes r until a clean end-of-stream occurs at a record boundary.
func ReadHeader(r io.Reader) (map[string]SmallItem, error) {
	const op = "dds.ReadHeader"
	items := make(map[string]SmallItem)

	for {
		nameBuf := make([]byte, maxNameBytes+1)
		full, err := eofread.ExactRead(r, nameBuf)
		if err != nil {
			return nil, rfioerr.New(rfioerr.KindUnexpectedEOF, op, "", err)
		}
		if !full {
			break
		}

		name := parseName(nameBuf[:maxNameBytes])
		packedLen := int(nameBuf[maxNameBytes])

		if packedLen == 0 {
			items[name] = SmallItem{Type: Binary, Payload: nil}
			continue
		}

		tagBuf := make([]byte, bigend.SizeInt32)
		if full, err := eofread.ExactRead(r, tagBuf); err != nil || !full {
			return nil, rfioerr.New(rfioerr.KindUnexpectedEOF, op, name, err)
		}
		tag := bigend.Int32(tagBuf)
		elemType, recognized := ValidType(tag)
		if !recognized {
			return nil, rfioerr.Newf(rfioerr.KindMalformed, op, name, "unrecognised type tag %d", tag)
		}

		zone := headerAlignZone(elemType)
		if pad := zone - bigend.SizeInt32; pad > 0 {
			if _, err := io.CopyN(io.Discard, r, int64(pad)); err != nil {
				return nil, rfioerr.New(rfioerr.KindUnexpectedEOF, op, name, err)
			}
		}

		payloadLen := packedLen - zone
		if payloadLen < 0 {
			return nil, rfioerr.Newf(rfioerr.KindMalformed, op, name,
				"packed_len %d shorter than alignment zone %d", packedLen, zone)
		}
		payload := make([]byte, payloadLen)
		if full, err := eofread.ExactRead(r, payload); err != nil || !full {
			return nil, rfioerr.New(rfioerr.KindUnexpectedEOF, op, name, err)
		}

		// Reinterpret an oversized Int8 as Text: this is how textual header
		// items are stored (spec.md §4.5).
		if elemType == Int8 && packedLen > 5 {
			elemType = Text
		}

		if elemType != Text {
			if sz := elemType.ElemSize(); sz > 0 && payloadLen%sz != 0 {
				return nil, rfioerr.Newf(rfioerr.KindMalformed, op, name,
					"payload length %d is not a multiple of element size %d", payloadLen, sz)
			}
		}

		// Advance to the next 16-byte boundary.
		consumed := headerRecordAlign + packedLen
		if padTo16 := (headerRecordAlign - consumed%headerRecordAlign) % headerRecordAlign; padTo16 > 0 {
			if _, err := io.CopyN(io.Discard, r, int64(padTo16)); err != nil {
				return nil, rfioerr.New(rfioerr.KindUnexpectedEOF, op, name, err)
			}
		}

		items[name] = SmallItem{Type: elemType, Payload: payload}
	}

	return items, nil
}

// WriteHeader serialises items to w as a sequence of 16-byte-aligned
// records. Items are written in sorted name order for determinism; the
// format does not require any particular order (spec.md §4.7).
func WriteHeader(w io.Writer, items map[string]SmallItem) error {
	const op = "dds.WriteHeader"
	names := make([]string, 0, len(items))
	for name := range items {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := writeRecord(w, name, items[name]); err != nil {
			return rfioerr.New(rfioerr.KindIO, op, name, err)
		}
	}
	return nil
}

func writeRecord(w io.Writer, name string, item SmallItem) error {
	if len(name) > maxNameBytes {
		return invalidArg("dds.writeRecord", "item name exceeds 15 bytes")
	}

	var buf bytes.Buffer
	nameBuf := make([]byte, maxNameBytes)
	copy(nameBuf, name)
	buf.Write(nameBuf)

	if len(item.Payload) == 0 {
		buf.WriteByte(0)
		_, err := w.Write(buf.Bytes())
		return err
	}

	zone := headerAlignZone(item.Type)
	packedLen := zone + len(item.Payload)
	if packedLen > maxPackedLen {
		return invalidArg("dds.writeRecord", "record payload too large for one-byte length field")
	}
	buf.WriteByte(byte(packedLen))

	tagBuf := make([]byte, bigend.SizeInt32)
	bigend.PutInt32(tagBuf, int32(item.Type))
	buf.Write(tagBuf)
	if pad := zone - bigend.SizeInt32; pad > 0 {
		buf.Write(make([]byte, pad))
	}
	buf.Write(item.Payload)

	consumed := headerRecordAlign + packedLen
	if padTo16 := (headerRecordAlign - consumed%headerRecordAlign) % headerRecordAlign; padTo16 > 0 {
		buf.Write(make([]byte, padTo16))
	}

	_, err := w.Write(buf.Bytes())
	return err
}

func parseName(raw []byte) string {
	for i, b := range raw {
		if b == 0 {
			return string(raw[:i])
		}
	}
	return string(raw)
}
