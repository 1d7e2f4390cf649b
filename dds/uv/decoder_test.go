package uv

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/nrao/rfio/bigend"
	"github.com/nrao/rfio/dds"
)

// buildVisRecord writes one full record (SIZE+DATA for data, time, baseline,
// then EOR) in the shape spec.md §4.8's scenario 2 describes.
func buildVisRecord(buf *bytes.Buffer, dataOrd, timeOrd, baseOrd byte, data []float32, timeVal, baseVal int32) {
	writeEntry := func(ord, entryType byte, payload []byte) {
		buf.Write([]byte{ord, 0, entryType, 0})
		buf.Write(payload)
	}
	pad := func(to int) {
		if rem := buf.Len() % to; rem != 0 {
			buf.Write(make([]byte, to-rem))
		}
	}

	lenBuf := make([]byte, 4)

	bigend.PutInt32(lenBuf, int32(len(data)*4))
	writeEntry(dataOrd, 0, lenBuf)
	dataPayload := make([]byte, len(data)*4)
	for i, v := range data {
		bigend.PutFloat32(dataPayload[i*4:], v)
	}
	buf.Write([]byte{dataOrd, 0, 1, 0})
	pad(4)
	buf.Write(dataPayload)

	bigend.PutInt32(lenBuf, 4)
	writeEntry(timeOrd, 0, lenBuf)
	timePayload := make([]byte, 4)
	bigend.PutInt32(timePayload, timeVal)
	buf.Write([]byte{timeOrd, 0, 1, 0})
	pad(4)
	buf.Write(timePayload)

	bigend.PutInt32(lenBuf, 4)
	writeEntry(baseOrd, 0, lenBuf)
	basePayload := make([]byte, 4)
	bigend.PutInt32(basePayload, baseVal)
	buf.Write([]byte{baseOrd, 0, 1, 0})
	pad(4)
	buf.Write(basePayload)

	buf.Write([]byte{0, 0, 2, 0})
	pad(8)
}

func TestDecoderReplaysScenarioRecords(t *testing.T) {
	dir := t.TempDir()
	ds, err := dds.Create(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := dds.SetSmallText(ds, "obstype", "cross"); err != nil {
		t.Fatal(err)
	}
	if err := dds.SetSmallText(ds, "vartable", "i time\ni baseline\nr data"); err != nil {
		t.Fatal(err)
	}
	if err := dds.SetSmallVector(ds, "ncorr", []int64{3}); err != nil {
		t.Fatal(err)
	}

	var body bytes.Buffer
	// ordinals: time=0, baseline=1, data=2 (vartable order).
	buildVisRecord(&body, 2, 0, 1, []float32{1.0, 2.0, 3.0}, 100, 257)
	buildVisRecord(&body, 2, 0, 1, []float32{1.0, 2.0, 3.0}, 100, 258)

	vislen := int64(body.Len() + preambleBytes)
	if err := dds.SetSmallVector(ds, "vislen", []int64{vislen}); err != nil {
		t.Fatal(err)
	}
	if err := ds.Flush(); err != nil {
		t.Fatal(err)
	}

	visdataPath := filepath.Join(dir, "visdata")
	full := append(make([]byte, preambleBytes), body.Bytes()...)
	if err := os.WriteFile(visdataPath, full, 0o644); err != nil {
		t.Fatal(err)
	}

	reopened, err := dds.Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	dec, err := Open(reopened)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer dec.Close()

	baselineRef, ok := dec.Ref("baseline")
	if !ok {
		t.Fatal("expected a baseline variable")
	}
	dataRef, ok := dec.Ref("data")
	if !ok {
		t.Fatal("expected a data variable")
	}

	ok1, err := dec.NextRecord()
	if err != nil || !ok1 {
		t.Fatalf("first NextRecord: ok=%v err=%v", ok1, err)
	}
	baseline, err := GetScalar[int32](dec, baselineRef)
	if err != nil || baseline != 257 {
		t.Fatalf("expected baseline 257, got %d (err=%v)", baseline, err)
	}
	data, err := GetVector[float32](dec, dataRef)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 3 || data[0] != 1 || data[1] != 2 || data[2] != 3 {
		t.Fatalf("expected [1 2 3], got %v", data)
	}

	ok2, err := dec.NextRecord()
	if err != nil || !ok2 {
		t.Fatalf("second NextRecord: ok=%v err=%v", ok2, err)
	}
	baseline, err = GetScalar[int32](dec, baselineRef)
	if err != nil || baseline != 258 {
		t.Fatalf("expected baseline 258, got %d (err=%v)", baseline, err)
	}

	ok3, err := dec.NextRecord()
	if err != nil {
		t.Fatal(err)
	}
	if ok3 {
		t.Fatal("expected a third NextRecord call to return false")
	}
}

func TestEncoderDecoderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ds, err := dds.Create(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := dds.SetSmallText(ds, "obstype", "auto"); err != nil {
		t.Fatal(err)
	}
	vars := []VarInfo{
		{Name: "time", Ordinal: 0, Type: dds.Float64},
		{Name: "flag", Ordinal: 1, Type: dds.Int8},
	}
	if err := dds.SetSmallText(ds, "vartable", "d time\nb flag"); err != nil {
		t.Fatal(err)
	}
	if err := dds.SetSmallVector(ds, "ncorr", []int64{0}); err != nil {
		t.Fatal(err)
	}

	lw, err := ds.CreateLarge("visdata", dds.Binary)
	if err != nil {
		t.Fatal(err)
	}

	enc, err := NewEncoder(lw, vars, ds.Options().VisdataAlignment)
	if err != nil {
		t.Fatal(err)
	}
	timeRef, _ := enc.Ref("time")
	flagRef, _ := enc.Ref("flag")

	if err := enc.WriteSize(timeRef, 8); err != nil {
		t.Fatal(err)
	}
	if err := WriteData(enc, timeRef, []float64{12345.5}); err != nil {
		t.Fatal(err)
	}
	if err := enc.WriteSize(flagRef, 1); err != nil {
		t.Fatal(err)
	}
	if err := WriteData(enc, flagRef, []int8{1}); err != nil {
		t.Fatal(err)
	}
	if err := enc.WriteEOR(); err != nil {
		t.Fatal(err)
	}
	vislen := enc.Len() + preambleBytes
	if err := lw.Close(); err != nil {
		t.Fatal(err)
	}

	if err := dds.SetSmallVector(ds, "vislen", []int64{vislen}); err != nil {
		t.Fatal(err)
	}
	if err := ds.Flush(); err != nil {
		t.Fatal(err)
	}

	reopened, err := dds.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	dec, err := Open(reopened)
	if err != nil {
		t.Fatal(err)
	}
	defer dec.Close()

	ok, err := dec.NextRecord()
	if err != nil || !ok {
		t.Fatalf("NextRecord: ok=%v err=%v", ok, err)
	}

	tRef, _ := dec.Ref("time")
	fRef, _ := dec.Ref("flag")
	timeVal, err := GetScalar[float64](dec, tRef)
	if err != nil || timeVal != 12345.5 {
		t.Fatalf("expected time 12345.5, got %v (err=%v)", timeVal, err)
	}
	flagVal, err := GetScalar[int8](dec, fRef)
	if err != nil || flagVal != 1 {
		t.Fatalf("expected flag 1, got %v (err=%v)", flagVal, err)
	}
}
