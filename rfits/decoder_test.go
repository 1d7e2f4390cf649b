package rfits

import (
	"bytes"
	"testing"

	"github.com/nrao/rfio/rfioerr"
)

func fixedIntRecord(keyword string, value int64, comment string) []byte {
	rec := bytes.Repeat([]byte{' '}, RecordSize)
	copy(rec, keyword)
	rec[8] = '='
	rec[9] = ' '
	v := []byte(paddedInt(value, 20))
	copy(rec[10:30], v)
	if comment != "" {
		rec[30] = '/'
		copy(rec[31:], comment)
	} else {
		rec[30] = ' '
	}
	return rec
}

func paddedInt(v int64, width int) string {
	s := itoa(v)
	if len(s) >= width {
		return s
	}
	return string(bytes.Repeat([]byte{' '}, width-len(s))) + s
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var digits []byte
	for v > 0 {
		digits = append([]byte{byte('0' + v%10)}, digits...)
		v /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}

func simpleRecord() []byte {
	return canonicalSimplePrefix2()
}

func canonicalSimplePrefix2() []byte {
	rec := bytes.Repeat([]byte{' '}, RecordSize)
	copy(rec[:30], canonicalSimplePrefix())
	return rec
}

func endRecord() []byte {
	return canonicalEndRecord()
}

// buildMinimalPrimaryFile builds SIMPLE/BITPIX/NAXIS/NAXIS1/END padded to
// one 2880-byte block, followed by one 2880-byte data block whose first
// dataLen bytes are meaningful, per spec.md §8 scenario 4.
func buildMinimalPrimaryFile(dataLen int) []byte {
	var hdr bytes.Buffer
	hdr.Write(simpleRecord())
	hdr.Write(fixedIntRecord("BITPIX", 8, ""))
	hdr.Write(fixedIntRecord("NAXIS", 1, ""))
	hdr.Write(fixedIntRecord("NAXIS1", int64(dataLen), ""))
	hdr.Write(endRecord())
	for hdr.Len()%BlockSize != 0 {
		hdr.WriteByte(' ')
	}
	data := make([]byte, BlockSize)
	for i := 0; i < dataLen; i++ {
		data[i] = byte(i + 1)
	}
	hdr.Write(data)
	return hdr.Bytes()
}

func TestDecoderMinimalPrimaryHdu(t *testing.T) {
	file := buildMinimalPrimaryFile(5)
	dec := New(bytes.NewReader(file))

	var headerCount int
	for {
		ev, err := dec.Next()
		if err != nil {
			t.Fatalf("event %d: %v", headerCount, err)
		}
		if ev == nil {
			break
		}
		if ev.Kind == EventHeader {
			headerCount++
			continue
		}
		if ev.Kind == EventEndOfHeaders {
			if ev.DataByteCount != 5 {
				t.Fatalf("expected data byte count 5, got %d", ev.DataByteCount)
			}
			continue
		}
		if ev.Kind == EventData {
			if len(ev.Data) != 5 {
				t.Fatalf("expected 5 data bytes, got %d", len(ev.Data))
			}
			for i, b := range ev.Data {
				if b != byte(i+1) {
					t.Errorf("data byte %d: want %d got %d", i, i+1, b)
				}
			}
			continue
		}
		t.Fatalf("unexpected event kind %v", ev.Kind)
	}
	if headerCount != 5 {
		t.Fatalf("expected 5 header events, got %d", headerCount)
	}
	if dec.Offset() != 5760 {
		t.Fatalf("expected final offset 5760, got %d", dec.Offset())
	}
}

func TestDecoderMisorderedNaxisIsMalformed(t *testing.T) {
	var hdr bytes.Buffer
	hdr.Write(simpleRecord())
	hdr.Write(fixedIntRecord("BITPIX", 8, ""))
	hdr.Write(fixedIntRecord("NAXIS", 2, ""))
	hdr.Write(fixedIntRecord("NAXIS2", 3, ""))
	for hdr.Len()%BlockSize != 0 {
		hdr.WriteByte(' ')
	}

	dec := New(bytes.NewReader(hdr.Bytes()))
	for i := 0; i < 4; i++ {
		if _, err := dec.Next(); err != nil {
			if rfioerr.KindOf(err) != rfioerr.KindMalformed {
				t.Fatalf("expected malformed, got %v", err)
			}
			return
		}
	}
	t.Fatal("expected a Malformed error for out-of-order NAXISn")
}
