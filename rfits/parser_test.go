package rfits

import (
	"bytes"
	"testing"

	"github.com/nrao/rfio/rfioerr"
)

func TestParserMinimalPrimaryHdu(t *testing.T) {
	file := buildMinimalPrimaryFile(5)
	p, err := NewParser(bytes.NewReader(file))
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	hdus := p.Hdus()
	if len(hdus) != 1 {
		t.Fatalf("expected 1 HDU, got %d", len(hdus))
	}
	h := hdus[0]
	if h.Kind != PrimaryArray {
		t.Errorf("expected PrimaryArray, got %v", h.Kind)
	}
	if h.Bitpix != U8 {
		t.Errorf("expected bitpix U8, got %v", h.Bitpix)
	}
	if len(h.Naxis) != 1 || h.Naxis[0] != 5 {
		t.Errorf("expected naxis [5], got %v", h.Naxis)
	}
	if h.Pcount != 0 || h.Gcount != 1 {
		t.Errorf("expected pcount=0 gcount=1, got pcount=%d gcount=%d", h.Pcount, h.Gcount)
	}
	if h.HeaderByteOffset != 0 {
		t.Errorf("expected header offset 0, got %d", h.HeaderByteOffset)
	}
	if h.NHeaderRecords != 5 {
		t.Errorf("expected 5 header records, got %d", h.NHeaderRecords)
	}
	if p.SpecialRecordSize() != 0 {
		t.Errorf("expected no special record span, got %d", p.SpecialRecordSize())
	}
}

func TestParserMisorderedNaxisIsMalformed(t *testing.T) {
	var hdr bytes.Buffer
	hdr.Write(simpleRecord())
	hdr.Write(fixedIntRecord("BITPIX", 8, ""))
	hdr.Write(fixedIntRecord("NAXIS", 2, ""))
	hdr.Write(fixedIntRecord("NAXIS2", 3, ""))
	for hdr.Len()%BlockSize != 0 {
		hdr.WriteByte(' ')
	}

	_, err := NewParser(bytes.NewReader(hdr.Bytes()))
	if err == nil {
		t.Fatal("expected a Malformed error for out-of-order NAXISn")
	}
	if rfioerr.KindOf(err) != rfioerr.KindMalformed {
		t.Fatalf("expected malformed, got %v", err)
	}
}
