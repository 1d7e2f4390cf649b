package eofread

import (
	"bytes"
	"testing"

	"github.com/nrao/rfio/rfioerr"
)

func TestExactReadFullBuffer(t *testing.T) {
	r := bytes.NewReader([]byte{1, 2, 3, 4})
	buf := make([]byte, 4)
	ok, err := ExactRead(r, buf)
	if err != nil || !ok {
		t.Fatalf("expected ok=true err=nil, got ok=%v err=%v", ok, err)
	}
}

func TestExactReadCleanEOF(t *testing.T) {
	r := bytes.NewReader(nil)
	buf := make([]byte, 4)
	ok, err := ExactRead(r, buf)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if ok {
		t.Fatal("expected ok=false on clean EOF")
	}
}

func TestExactReadTruncated(t *testing.T) {
	r := bytes.NewReader([]byte{1, 2})
	buf := make([]byte, 4)
	ok, err := ExactRead(r, buf)
	if ok {
		t.Fatal("expected ok=false")
	}
	if rfioerr.KindOf(err) != rfioerr.KindUnexpectedEOF {
		t.Fatalf("expected UnexpectedEOF, got %v", err)
	}
}

func TestReadBEInt32RoundTrip(t *testing.T) {
	r := bytes.NewReader([]byte{0x00, 0x01, 0x02, 0x03})
	v, ok, err := ReadBEInt32(r)
	if err != nil || !ok {
		t.Fatalf("unexpected err=%v ok=%v", err, ok)
	}
	if v != 0x00010203 {
		t.Fatalf("expected 0x00010203, got %x", v)
	}
}

func TestReadBEInt16AtEOF(t *testing.T) {
	r := bytes.NewReader(nil)
	_, ok, err := ReadBEInt16(r)
	if err != nil {
		t.Fatalf("expected nil error at clean EOF, got %v", err)
	}
	if ok {
		t.Fatal("expected ok=false at clean EOF")
	}
}
