/*******************************************************************************
*
* DDS-LARGE: the large-item codec (spec.md §4.6). A large item is a
* standalone file in the dataset directory; its layout is self-describing
* from its first bytes, the same "sniff the magic, then decode" approach
* dump-package/impl/core.go uses (RecognizeAndDump) to identify an unknown
* blob's format before dispatching to a type-specific dumper.
*
*******************************************************************************/

package dds

import (
	"io"

	"github.com/nrao/rfio/align"
	"github.com/nrao/rfio/bigend"
	"github.com/nrao/rfio/rfioerr"
)

// LargeInfo describes how a large-item file's bytes are laid out.
type LargeInfo struct {
	Type         ElemType
	SizeOffset   int64 // 4 if a type tag is present, 0 otherwise
	ElementCount int64
}

func isPrintableASCII(b []byte) bool {
	for _, c := range b {
		if c < 0x20 || c > 0x7E {
			return false
		}
	}
	return true
}

// DetectLarge inspects the first bytes of a large-item file (read via r,
// which must support reads at an arbitrary offset without disturbing other
// readers of the same file) and the file's total size to determine its
// type, per spec.md §4.6. size must be the exact file length.
func DetectLarge(r io.ReaderAt, size int64) (LargeInfo, error) {
	const op = "dds.DetectLarge"

	if size < 4 {
		head := make([]byte, size)
		if size > 0 {
			if _, err := r.ReadAt(head, 0); err != nil {
				return LargeInfo{}, rfioerr.New(rfioerr.KindUnexpectedEOF, op, "", err)
			}
		}
		t := Binary
		if isPrintableASCII(head) {
			t = Text
		}
		return largeInfoFromDataLen(t, 0, size, op)
	}

	head := make([]byte, 4)
	if _, err := r.ReadAt(head, 0); err != nil {
		return LargeInfo{}, rfioerr.New(rfioerr.KindUnexpectedEOF, op, "", err)
	}
	tag := bigend.Int32(head)
	if t, ok := ValidType(tag); ok {
		return largeInfoFromDataLen(t, 4, size, op)
	}
	if isPrintableASCII(head) {
		return largeInfoFromDataLen(Text, 0, size, op)
	}
	return largeInfoFromDataLen(Binary, 0, size, op)
}

func largeInfoFromDataLen(t ElemType, sizeOffset, fileSize int64, op string) (LargeInfo, error) {
	dataBytes := fileSize - sizeOffset
	elemSize := int64(t.ElemSize())
	if elemSize == 0 || dataBytes%elemSize != 0 {
		return LargeInfo{}, rfioerr.Newf(rfioerr.KindMalformed, op, "",
			"data byte count %d does not divide evenly by element size %d", dataBytes, elemSize)
	}
	return LargeInfo{Type: t, SizeOffset: sizeOffset, ElementCount: dataBytes / elemSize}, nil
}

// OpenLargeElements positions r (which must start at the beginning of the
// large-item file) past the size_offset header and aligns to
// max(4, type.Alignment()), ready to decode info.ElementCount elements.
func OpenLargeElements(r io.Reader, info LargeInfo) (*align.Reader, error) {
	if info.SizeOffset > 0 {
		if _, err := io.CopyN(io.Discard, r, info.SizeOffset); err != nil {
			return nil, rfioerr.New(rfioerr.KindUnexpectedEOF, "dds.OpenLargeElements", "", err)
		}
	}
	ar := align.NewReader(r)
	zone := max(4, info.Type.Alignment())
	if _, err := ar.AlignTo(zone); err != nil {
		return nil, err
	}
	return ar, nil
}

// CreateLargeWriter writes the 4-byte type tag for t (if any) directly to w
// and returns an aligning writer positioned immediately after it. Per
// spec.md §4.6, the caller is responsible for aligning before writing
// element data.
func CreateLargeWriter(w io.Writer, t ElemType) (*align.Writer, error) {
	if t != Text && t != Binary {
		tagBuf := make([]byte, bigend.SizeInt32)
		bigend.PutInt32(tagBuf, int32(t))
		if _, err := w.Write(tagBuf); err != nil {
			return nil, rfioerr.New(rfioerr.KindIO, "dds.CreateLargeWriter", "", err)
		}
	}
	return align.NewWriter(w), nil
}
