package align

import (
	"bytes"
	"testing"

	"github.com/nrao/rfio/rfioerr"
)

func TestWriterAlignToPadsWithZeros(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if _, err := w.Write([]byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	already, err := w.AlignTo(16)
	if err != nil {
		t.Fatal(err)
	}
	if already {
		t.Fatal("expected not already aligned")
	}
	if w.Offset()%16 != 0 {
		t.Fatalf("offset %d not aligned to 16", w.Offset())
	}
	if buf.Len() != 16 {
		t.Fatalf("expected 16 bytes written, got %d", buf.Len())
	}
	for i, b := range buf.Bytes()[3:] {
		if b != 0 {
			t.Fatalf("expected zero padding at %d, got %x", i+3, b)
		}
	}
}

func TestAlreadyAlignedNoOp(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	already, err := w.AlignTo(8)
	if err != nil {
		t.Fatal(err)
	}
	if !already {
		t.Fatal("expected already aligned at offset 0")
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no bytes written, got %d", buf.Len())
	}
}

func TestReaderAlignToDiscardsSameCount(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Write([]byte{1, 2, 3})
	w.AlignTo(16)

	r := NewReader(bytes.NewReader(buf.Bytes()))
	got := make([]byte, 3)
	if _, err := r.Read(got); err != nil {
		t.Fatal(err)
	}
	already, err := r.AlignTo(16)
	if err != nil {
		t.Fatal(err)
	}
	if already {
		t.Fatal("expected not already aligned")
	}
	if r.Offset() != 16 {
		t.Fatalf("expected offset 16, got %d", r.Offset())
	}
}

func TestAlignToInvalidArgument(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	_, err := w.AlignTo(65)
	if rfioerr.KindOf(err) != rfioerr.KindInvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}
