package dds

import (
	"bytes"
	"testing"

	"github.com/nrao/rfio/bigend"
)

func TestHeaderRoundTrip(t *testing.T) {
	payload := make([]byte, 8)
	bigend.PutInt64(payload, 42)

	textPayload := []byte("cross")

	items := map[string]SmallItem{
		"ncorr":   {Type: Int64, Payload: payload},
		"obstype": {Type: Text, Payload: textPayload},
		"empty":   {Type: Binary, Payload: nil},
	}

	var buf bytes.Buffer
	if err := WriteHeader(&buf, items); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	if buf.Len()%16 != 0 {
		t.Fatalf("header length %d not a multiple of 16", buf.Len())
	}

	got, err := ReadHeader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if len(got) != len(items) {
		t.Fatalf("expected %d items, got %d", len(items), len(got))
	}
	for name, want := range items {
		item, ok := got[name]
		if !ok {
			t.Fatalf("missing item %q", name)
		}
		if item.Type != want.Type {
			t.Errorf("%s: type mismatch: want %v got %v", name, want.Type, item.Type)
		}
		if !bytes.Equal(item.Payload, want.Payload) && !(len(item.Payload) == 0 && len(want.Payload) == 0) {
			t.Errorf("%s: payload mismatch: want %x got %x", name, want.Payload, item.Payload)
		}
	}
}

func TestHeaderInt8ReinterpretedAsText(t *testing.T) {
	items := map[string]SmallItem{
		"name": {Type: Int8, Payload: []byte("hello")},
	}
	var buf bytes.Buffer
	if err := WriteHeader(&buf, items); err != nil {
		t.Fatal(err)
	}
	got, err := ReadHeader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if got["name"].Type != Text {
		t.Errorf("expected Int8 record with packed_len >5 to be reinterpreted as Text, got %v", got["name"].Type)
	}
}

func TestHeaderSingleByteInt8StaysInt8(t *testing.T) {
	items := map[string]SmallItem{
		"flag": {Type: Int8, Payload: []byte{1}},
	}
	var buf bytes.Buffer
	if err := WriteHeader(&buf, items); err != nil {
		t.Fatal(err)
	}
	got, err := ReadHeader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if got["flag"].Type != Int8 {
		t.Errorf("expected short Int8 payload to remain Int8, got %v", got["flag"].Type)
	}
}

func TestHeaderEmptyStreamYieldsNoItems(t *testing.T) {
	got, err := ReadHeader(bytes.NewReader(nil))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no items, got %d", len(got))
	}
}
