/*******************************************************************************
*
* ItemHandle is the uniform view onto one dataset item regardless of whether
* it is backed by a Small header record or a Large standalone file
* (spec.md §4.7, §6.1).
*
*******************************************************************************/

package dds

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nrao/rfio/rfioerr"
)

// Storage distinguishes where an item's bytes live.
type Storage int

const (
	StorageSmall Storage = iota
	StorageLarge
)

func (s Storage) String() string {
	if s == StorageLarge {
		return "large"
	}
	return "small"
}

// ItemInfo is the metadata returned by Dataset.Items, Dataset.Stat, and
// ItemHandle.Info.
type ItemInfo struct {
	Name         string
	Type         ElemType
	Storage      Storage
	ElementCount int64
}

// ItemHandle is a bound reference to one named dataset item, obtained from
// Dataset.Get. It is only valid for the lifetime of its owning Dataset.
type ItemHandle struct {
	ds   *Dataset
	info ItemInfo
}

// Info returns the handle's metadata.
func (h *ItemHandle) Info() ItemInfo { return h.info }

// Name returns the item's name.
func (h *ItemHandle) Name() string { return h.info.Name }

// Type returns the item's element type.
func (h *ItemHandle) Type() ElemType { return h.info.Type }

// IsLarge reports whether the item is backed by a standalone file.
func (h *ItemHandle) IsLarge() bool { return h.info.Storage == StorageLarge }

// ElementCount returns the number of elements the item holds. A Small Text
// item reports 1; a Large Text item reports its byte count.
func (h *ItemHandle) ElementCount() int64 { return h.info.ElementCount }

// rawReader opens the item's bytes positioned ready to decode elements: for
// Small items this is simply the cached payload; for Large items the file
// is opened, the size_offset tag skipped, and the stream aligned.
func (h *ItemHandle) rawReader() (io.Reader, func() error, error) {
	const op = "dds.ItemHandle.rawReader"
	if h.info.Storage == StorageSmall {
		si, ok := h.ds.small[h.info.Name]
		if !ok {
			return nil, nil, rfioerr.Newf(rfioerr.KindNotFound, op, h.info.Name, "item no longer present")
		}
		return bytes.NewReader(si.Payload), func() error { return nil }, nil
	}

	li, ok := h.ds.large[h.info.Name]
	if !ok {
		return nil, nil, rfioerr.Newf(rfioerr.KindNotFound, op, h.info.Name, "item no longer present")
	}
	f, err := os.Open(filepath.Join(h.ds.dir, h.info.Name))
	if err != nil {
		return nil, nil, rfioerr.New(rfioerr.KindIO, op, h.info.Name, err)
	}
	ar, err := OpenLargeElements(f, li)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return ar, f.Close, nil
}

// ReadVector decodes the item's elements into a freshly allocated []T. The
// item's ElemType must match T's corresponding element type exactly
// (spec.md §7, TypeMismatch).
func ReadVector[T any](h *ItemHandle) ([]T, error) {
	const op = "dds.ReadVector"
	want, ok := elemTypeOf[T]()
	if !ok {
		return nil, invalidArg(op, "unsupported element type")
	}
	if h.info.Type != want {
		return nil, rfioerr.Newf(rfioerr.KindTypeMismatch, op, h.info.Name,
			"item has type %v, requested %v", h.info.Type, want)
	}
	r, closeFn, err := h.rawReader()
	if err != nil {
		return nil, err
	}
	defer closeFn()
	return decodeElements[T](r, h.info.ElementCount)
}

// ReadScalar decodes a single-element item as T, failing with ShapeMismatch
// if the item does not hold exactly one element.
func ReadScalar[T any](h *ItemHandle) (T, error) {
	const op = "dds.ReadScalar"
	var zero T
	if h.info.ElementCount != 1 {
		return zero, rfioerr.Newf(rfioerr.KindShapeMismatch, op, h.info.Name,
			"item holds %d elements, expected exactly 1", h.info.ElementCount)
	}
	vals, err := ReadVector[T](h)
	if err != nil {
		return zero, err
	}
	return vals[0], nil
}

// ReadText returns the string value of a Text item.
func (h *ItemHandle) ReadText() (string, error) {
	const op = "dds.ItemHandle.ReadText"
	if h.info.Type != Text {
		return "", rfioerr.Newf(rfioerr.KindTypeMismatch, op, h.info.Name,
			"item has type %v, expected text", h.info.Type)
	}
	r, closeFn, err := h.rawReader()
	if err != nil {
		return "", err
	}
	defer closeFn()
	b, err := io.ReadAll(r)
	if err != nil {
		return "", rfioerr.New(rfioerr.KindIO, op, h.info.Name, err)
	}
	return string(b), nil
}

// IntoLines reads a Large Text item and splits it on newlines, discarding a
// single trailing empty line left by a final newline. Only valid for Large
// items (spec.md §6.1).
func (h *ItemHandle) IntoLines() ([]string, error) {
	const op = "dds.ItemHandle.IntoLines"
	if !h.IsLarge() {
		return nil, invalidArg(op, "IntoLines is only valid for large items")
	}
	if h.info.Type != Text {
		return nil, rfioerr.Newf(rfioerr.KindTypeMismatch, op, h.info.Name,
			"item has type %v, expected text", h.info.Type)
	}
	text, err := h.ReadText()
	if err != nil {
		return nil, err
	}
	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines, nil
}

// IntoByteStream returns a ReadCloser over the item's raw bytes, positioned
// past any size_offset tag and aligned to its type's alignment zone. Only
// valid for Large items (spec.md §6.1).
func (h *ItemHandle) IntoByteStream() (io.ReadCloser, error) {
	const op = "dds.ItemHandle.IntoByteStream"
	if !h.IsLarge() {
		return nil, invalidArg(op, "IntoByteStream is only valid for large items")
	}
	li, ok := h.ds.large[h.info.Name]
	if !ok {
		return nil, rfioerr.Newf(rfioerr.KindNotFound, op, h.info.Name, "item no longer present")
	}
	f, err := os.Open(filepath.Join(h.ds.dir, h.info.Name))
	if err != nil {
		return nil, rfioerr.New(rfioerr.KindIO, op, h.info.Name, err)
	}
	ar, err := OpenLargeElements(f, li)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &byteStream{r: bufio.NewReader(ar), f: f}, nil
}

// RawBytes reads the item's encoded payload verbatim, regardless of its
// element type: the raw bytes of a Small item's cached record, or a Large
// item's file past its size_offset tag. Used by dds/archive to pack items
// it does not otherwise need to interpret.
func (h *ItemHandle) RawBytes() ([]byte, error) {
	const op = "dds.ItemHandle.RawBytes"
	r, closeFn, err := h.rawReader()
	if err != nil {
		return nil, err
	}
	defer closeFn()
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, rfioerr.New(rfioerr.KindIO, op, h.info.Name, err)
	}
	return b, nil
}

type byteStream struct {
	r io.Reader
	f *os.File
}

func (b *byteStream) Read(p []byte) (int, error) { return b.r.Read(p) }
func (b *byteStream) Close() error                { return b.f.Close() }
