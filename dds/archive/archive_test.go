package archive

import (
	"bytes"
	"testing"

	"github.com/nrao/rfio/dds"
)

func newTestDataset(t *testing.T, dir string) *dds.Dataset {
	t.Helper()
	ds, err := dds.Create(dir)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := dds.SetSmallText(ds, "obstype", "cross"); err != nil {
		t.Fatalf("SetSmallText: %v", err)
	}
	if err := dds.SetSmallVector(ds, "ncorr", []int64{42}); err != nil {
		t.Fatalf("SetSmallVector: %v", err)
	}
	if err := ds.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	return ds
}

func TestExportArWritesHeaderFirst(t *testing.T) {
	ds := newTestDataset(t, t.TempDir())

	var buf bytes.Buffer
	if err := ExportAr(ds, &buf); err != nil {
		t.Fatalf("ExportAr: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected a non-empty ar archive")
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("!<arch>\n")) {
		t.Fatalf("expected ar global header, got %q", buf.Bytes()[:8])
	}
}

func TestExportImportCpioRoundTrip(t *testing.T) {
	ds := newTestDataset(t, t.TempDir())

	var buf bytes.Buffer
	if err := ExportCpio(ds, &buf); err != nil {
		t.Fatalf("ExportCpio: %v", err)
	}

	ds2, err := ImportCpio(&buf, t.TempDir())
	if err != nil {
		t.Fatalf("ImportCpio: %v", err)
	}

	h, ok, err := ds2.Get("obstype")
	if err != nil || !ok {
		t.Fatalf("Get(obstype): ok=%v err=%v", ok, err)
	}
	text, err := h.ReadText()
	if err != nil || text != "cross" {
		t.Fatalf("expected obstype=cross, got %q err=%v", text, err)
	}

	h2, ok, err := ds2.Get("ncorr")
	if err != nil || !ok {
		t.Fatalf("Get(ncorr): ok=%v err=%v", ok, err)
	}
	v, err := dds.ReadScalar[int64](h2)
	if err != nil || v != 42 {
		t.Fatalf("expected ncorr=42, got %d err=%v", v, err)
	}
}
