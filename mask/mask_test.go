package mask

import (
	"bytes"
	"testing"
)

func encodeAll(t *testing.T, bs []bool) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.Append(bs); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return buf.Bytes()
}

func decodeAll(t *testing.T, data []byte, n int) []bool {
	t.Helper()
	r := NewReader(bytes.NewReader(data))
	dst := make([]bool, n)
	if err := r.Expand(dst); err != nil {
		t.Fatalf("Expand: %v", err)
	}
	return dst
}

func TestRoundTripVariousLengths(t *testing.T) {
	for _, n := range []int{0, 1, 30, 31, 32, 61, 62, 63, 64, 100, 310} {
		bs := make([]bool, n)
		for i := range bs {
			bs[i] = i%3 == 0
		}
		data := encodeAll(t, bs)
		wantLen := 4 * ((n + 30) / 31)
		if n == 0 {
			wantLen = 0
		}
		if len(data) != wantLen {
			t.Errorf("n=%d: expected %d encoded bytes, got %d", n, wantLen, len(data))
		}
		got := decodeAll(t, data, n)
		for i := range bs {
			if got[i] != bs[i] {
				t.Errorf("n=%d: mismatch at index %d: want %v got %v", n, i, bs[i], got[i])
			}
		}
	}
}

func TestBitOrderWithinWord(t *testing.T) {
	bs := []bool{true, false, true, true}
	data := encodeAll(t, bs)
	if len(data) != 4 {
		t.Fatalf("expected 4 bytes (1 word), got %d", len(data))
	}
	word := uint32(data[0])<<24 | uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3])
	if word>>31&1 != 0 {
		t.Error("bit 31 must be unused/zero")
	}
	if word>>30&1 != 1 {
		t.Error("bit 30 should be first boolean (true)")
	}
	if word>>29&1 != 0 {
		t.Error("bit 29 should be second boolean (false)")
	}
	if word>>28&1 != 1 {
		t.Error("bit 28 should be third boolean (true)")
	}
	if word>>27&1 != 1 {
		t.Error("bit 27 should be fourth boolean (true)")
	}
}

func TestAppendRunMatchesRepeatedAppend(t *testing.T) {
	var viaRun, viaAppend bytes.Buffer
	wRun := NewWriter(&viaRun)
	if err := wRun.AppendRun(true, 500); err != nil {
		t.Fatal(err)
	}
	wRun.Close()

	wAppend := NewWriter(&viaAppend)
	bs := make([]bool, 500)
	for i := range bs {
		bs[i] = true
	}
	if err := wAppend.Append(bs); err != nil {
		t.Fatal(err)
	}
	wAppend.Close()

	if !bytes.Equal(viaRun.Bytes(), viaAppend.Bytes()) {
		t.Error("AppendRun produced different bytes than equivalent Append call")
	}
}
