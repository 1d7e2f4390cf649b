package bigend

import (
	"math"
	"testing"
)

func TestInt16RoundTrip(t *testing.T) {
	cases := []int16{0, 1, -1, math.MinInt16, math.MaxInt16, 12345, -12345}
	for _, v := range cases {
		buf := make([]byte, SizeInt16)
		PutInt16(buf, v)
		if got := Int16(buf); got != v {
			t.Errorf("Int16 round-trip: put %d, got %d (buf=%x)", v, got, buf)
		}
	}
}

func TestInt32RoundTrip(t *testing.T) {
	cases := []int32{0, 1, -1, math.MinInt32, math.MaxInt32, 1 << 20, -(1 << 20)}
	for _, v := range cases {
		buf := make([]byte, SizeInt32)
		PutInt32(buf, v)
		if got := Int32(buf); got != v {
			t.Errorf("Int32 round-trip: put %d, got %d (buf=%x)", v, got, buf)
		}
	}
}

func TestInt64RoundTrip(t *testing.T) {
	cases := []int64{0, 1, -1, math.MinInt64, math.MaxInt64, 1 << 40, -(1 << 40)}
	for _, v := range cases {
		buf := make([]byte, SizeInt64)
		PutInt64(buf, v)
		if got := Int64(buf); got != v {
			t.Errorf("Int64 round-trip: put %d, got %d (buf=%x)", v, got, buf)
		}
	}
}

func TestFloat32RoundTrip(t *testing.T) {
	cases := []float32{0, -0, 1.5, -1.5, float32(math.Inf(1)), float32(math.Inf(-1))}
	for _, v := range cases {
		buf := make([]byte, SizeFloat32)
		PutFloat32(buf, v)
		got := Float32(buf)
		if math.Float32bits(got) != math.Float32bits(v) {
			t.Errorf("Float32 round-trip: put %v, got %v", v, got)
		}
	}

	// NaN payload must survive bit-for-bit.
	nan := math.Float32frombits(0x7fc00123)
	buf := make([]byte, SizeFloat32)
	PutFloat32(buf, nan)
	got := Float32(buf)
	if math.Float32bits(got) != math.Float32bits(nan) {
		t.Errorf("Float32 NaN payload not preserved: put bits %x, got bits %x",
			math.Float32bits(nan), math.Float32bits(got))
	}
}

func TestFloat64RoundTrip(t *testing.T) {
	cases := []float64{0, -0, 1.5, -1.5, math.Inf(1), math.Inf(-1)}
	for _, v := range cases {
		buf := make([]byte, SizeFloat64)
		PutFloat64(buf, v)
		got := Float64(buf)
		if math.Float64bits(got) != math.Float64bits(v) {
			t.Errorf("Float64 round-trip: put %v, got %v", v, got)
		}
	}

	nan := math.Float64frombits(0x7ff8000000000123)
	buf := make([]byte, SizeFloat64)
	PutFloat64(buf, nan)
	got := Float64(buf)
	if math.Float64bits(got) != math.Float64bits(nan) {
		t.Errorf("Float64 NaN payload not preserved: put bits %x, got bits %x",
			math.Float64bits(nan), math.Float64bits(got))
	}
}

func TestComplex64RoundTrip(t *testing.T) {
	cases := []Complex64{
		{Real: 0, Imag: 0},
		{Real: 1.5, Imag: -2.25},
		{Real: float32(math.Inf(-1)), Imag: float32(math.Inf(1))},
	}
	for _, v := range cases {
		buf := make([]byte, SizeComplex64)
		PutComplex64(buf, v)
		got := DecodeComplex64(buf)
		if got != v {
			t.Errorf("Complex64 round-trip: put %+v, got %+v", v, got)
		}
	}
}
