/*******************************************************************************
*
* Dataset is the DDS façade (spec.md §4.7): it binds the DDS-HDR header
* codec and the DDS-LARGE file codec into the open/items/get/set/flush
* surface a caller actually uses. Grounded on the way
* src/dump-package/impl/core.go's Package type holds an in-memory model
* that is only serialised to disk on demand, rather than on every mutation.
*
*******************************************************************************/

package dds

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nrao/rfio/align"
	"github.com/nrao/rfio/dds/config"
	"github.com/nrao/rfio/rfioerr"
)

const headerFileName = "header"
const maxItemNameLen = 8

// maxSmallPayload is the writer-side payload cap (spec.md §4.5: "individual
// small-item payload must remain ≤ 64 bytes when written"), distinct from
// maxPackedLen (dds/header.go), which bounds the reader-side total on-disk
// record size at 255 bytes.
const maxSmallPayload = 64

// Dataset is a directory-backed collection of named, typed items. The
// mandatory "header" file holds all Small items; every other regular file
// in the directory is a Large item. The large-item directory listing is
// scanned lazily, once, on first need (spec.md §4.7).
type Dataset struct {
	dir  string
	opts config.Options

	small map[string]SmallItem
	dirty bool

	large        map[string]LargeInfo
	largeScanned bool
	largeScanErr error
}

// Open opens an existing dataset directory, parsing its header file. It
// does not scan for large items; that happens lazily on first need.
func Open(dir string) (*Dataset, error) {
	return OpenWithOptions(dir, config.Default())
}

// OpenWithOptions is Open with an explicit policy configuration.
func OpenWithOptions(dir string, opts config.Options) (*Dataset, error) {
	const op = "dds.Open"
	f, err := os.Open(filepath.Join(dir, headerFileName))
	if err != nil {
		return nil, rfioerr.New(rfioerr.KindIO, op, dir, err)
	}
	defer f.Close()

	small, err := ReadHeader(f)
	if err != nil {
		return nil, err
	}
	return &Dataset{dir: dir, opts: opts, small: small}, nil
}

// Create makes a new, empty dataset directory. Its header file is not
// written until the first Flush.
func Create(dir string) (*Dataset, error) {
	return CreateWithOptions(dir, config.Default())
}

// CreateWithOptions is Create with an explicit policy configuration.
func CreateWithOptions(dir string, opts config.Options) (*Dataset, error) {
	const op = "dds.Create"
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, rfioerr.New(rfioerr.KindIO, op, dir, err)
	}
	return &Dataset{dir: dir, opts: opts, small: map[string]SmallItem{}, dirty: true}, nil
}

// Dir returns the dataset's backing directory.
func (ds *Dataset) Dir() string { return ds.dir }

// Options returns the policy configuration the dataset was opened or
// created with.
func (ds *Dataset) Options() config.Options { return ds.opts }

func (ds *Dataset) ensureLargeScanned() error {
	if ds.largeScanned {
		return ds.largeScanErr
	}
	ds.largeScanned = true

	entries, err := os.ReadDir(ds.dir)
	if err != nil {
		ds.largeScanErr = rfioerr.New(rfioerr.KindIO, "dds.Dataset.scan", ds.dir, err)
		return ds.largeScanErr
	}

	large := make(map[string]LargeInfo, len(entries))
	for _, e := range entries {
		name := e.Name()
		if name == headerFileName || strings.HasPrefix(name, ".") || e.IsDir() {
			continue
		}
		if _, exists := ds.small[name]; exists {
			ds.largeScanErr = rfioerr.Newf(rfioerr.KindNameCollision, "dds.Dataset.scan", name,
				"large-item file collides with an existing small item")
			return ds.largeScanErr
		}
		info, err := statAndDetect(filepath.Join(ds.dir, name))
		if err != nil {
			ds.largeScanErr = err
			return ds.largeScanErr
		}
		large[name] = info
	}
	ds.large = large
	return nil
}

func statAndDetect(path string) (LargeInfo, error) {
	const op = "dds.Dataset.scan"
	f, err := os.Open(path)
	if err != nil {
		return LargeInfo{}, rfioerr.New(rfioerr.KindIO, op, path, err)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return LargeInfo{}, rfioerr.New(rfioerr.KindIO, op, path, err)
	}
	return DetectLarge(f, fi.Size())
}

func smallElementCount(si SmallItem) int64 {
	if si.Type == Text {
		return 1
	}
	sz := si.Type.ElemSize()
	if sz == 0 {
		return 0
	}
	return int64(len(si.Payload)) / int64(sz)
}

// Items returns metadata for every item in the dataset, small and large
// together, sorted by name.
func (ds *Dataset) Items() ([]ItemInfo, error) {
	if err := ds.ensureLargeScanned(); err != nil {
		return nil, err
	}
	infos := make([]ItemInfo, 0, len(ds.small)+len(ds.large))
	for name, si := range ds.small {
		infos = append(infos, ItemInfo{Name: name, Type: si.Type, Storage: StorageSmall, ElementCount: smallElementCount(si)})
	}
	for name, li := range ds.large {
		infos = append(infos, ItemInfo{Name: name, Type: li.Type, Storage: StorageLarge, ElementCount: li.ElementCount})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// ItemNames returns the sorted names of every item in the dataset.
func (ds *Dataset) ItemNames() ([]string, error) {
	items, err := ds.Items()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	return names, nil
}

// Stat looks up one item's metadata without returning a handle. found is
// false, with a nil error, when no such item exists.
func (ds *Dataset) Stat(name string) (info ItemInfo, found bool, err error) {
	if si, ok := ds.small[name]; ok {
		return ItemInfo{Name: name, Type: si.Type, Storage: StorageSmall, ElementCount: smallElementCount(si)}, true, nil
	}
	if err := ds.ensureLargeScanned(); err != nil {
		return ItemInfo{}, false, err
	}
	if li, ok := ds.large[name]; ok {
		return ItemInfo{Name: name, Type: li.Type, Storage: StorageLarge, ElementCount: li.ElementCount}, true, nil
	}
	return ItemInfo{}, false, nil
}

// Get looks up a named item. found is false, with a nil error, when no such
// item exists -- NotFound is never returned as an error from Get
// (spec.md §7).
func (ds *Dataset) Get(name string) (handle *ItemHandle, found bool, err error) {
	info, found, err := ds.Stat(name)
	if err != nil || !found {
		return nil, found, err
	}
	return &ItemHandle{ds: ds, info: info}, true, nil
}

func validateItemName(op, name string) error {
	if name == "" || len(name) > maxItemNameLen {
		return rfioerr.Newf(rfioerr.KindInvalidArgument, op, name, "item name must be 1-%d bytes", maxItemNameLen)
	}
	if name == headerFileName {
		return rfioerr.Newf(rfioerr.KindInvalidArgument, op, name, `item may not be named %q`, headerFileName)
	}
	if strings.HasPrefix(name, ".") {
		return rfioerr.Newf(rfioerr.KindInvalidArgument, op, name, "item name may not start with '.'")
	}
	for _, r := range name {
		if r < 0x20 || r > 0x7E {
			return rfioerr.Newf(rfioerr.KindInvalidArgument, op, name, "item name must be printable ASCII")
		}
	}
	return nil
}

// resolveSmallWrite applies ds.opts.ShadowPolicy when name already exists as
// a large item, per SPEC_FULL.md's resolution of spec.md §9's first open
// question.
func (ds *Dataset) resolveSmallWrite(op, name string) error {
	if err := ds.ensureLargeScanned(); err != nil {
		return err
	}
	if _, exists := ds.large[name]; exists {
		switch ds.opts.ShadowPolicy {
		case config.ShadowSmallWins:
			delete(ds.large, name)
			return nil
		default:
			return rfioerr.Newf(rfioerr.KindNameCollision, op, name, "a large item with this name already exists")
		}
	}
	return nil
}

func (ds *Dataset) resolveLargeCreate(op, name string) error {
	if _, exists := ds.small[name]; exists {
		switch ds.opts.ShadowPolicy {
		case config.ShadowLargeWins:
			delete(ds.small, name)
			ds.dirty = true
			return nil
		default:
			return rfioerr.Newf(rfioerr.KindNameCollision, op, name, "a small item with this name already exists")
		}
	}
	return nil
}

// SetSmallVector stores values as a Small item under name, replacing any
// previous Small item of that name.
func SetSmallVector[T any](ds *Dataset, name string, values []T) error {
	const op = "dds.SetSmallVector"
	if err := validateItemName(op, name); err != nil {
		return err
	}
	if err := ds.resolveSmallWrite(op, name); err != nil {
		return err
	}
	typ, ok := elemTypeOf[T]()
	if !ok {
		return invalidArg(op, "unsupported element type")
	}

	var buf bytes.Buffer
	if err := encodeElements(&buf, values); err != nil {
		return err
	}
	if buf.Len() > maxSmallPayload {
		return rfioerr.Newf(rfioerr.KindInvalidArgument, op, name, "encoded payload of %d bytes exceeds the %d-byte small-item write limit", buf.Len(), maxSmallPayload)
	}
	if buf.Len() > maxPackedLen {
		return rfioerr.Newf(rfioerr.KindInvalidArgument, op, name, "encoded payload of %d bytes exceeds the small-item limit", buf.Len())
	}
	ds.small[name] = SmallItem{Type: typ, Payload: buf.Bytes()}
	ds.dirty = true
	return nil
}

// SetSmallText stores value as a Text Small item under name.
func SetSmallText(ds *Dataset, name string, value string) error {
	const op = "dds.SetSmallText"
	if err := validateItemName(op, name); err != nil {
		return err
	}
	if err := ds.resolveSmallWrite(op, name); err != nil {
		return err
	}
	if len(value) > maxSmallPayload {
		return rfioerr.Newf(rfioerr.KindInvalidArgument, op, name, "text value of %d bytes exceeds the %d-byte small-item write limit", len(value), maxSmallPayload)
	}
	if len(value) > maxPackedLen {
		return rfioerr.Newf(rfioerr.KindInvalidArgument, op, name, "text value of %d bytes exceeds the small-item limit", len(value))
	}
	ds.small[name] = SmallItem{Type: Text, Payload: []byte(value)}
	ds.dirty = true
	return nil
}

// LargeItemWriter writes a new Large item's element stream. Callers must
// Write pre-encoded big-endian element bytes (see bigend.Put*) or use
// WriteVector, then Close to finalise the file and register it with the
// owning Dataset.
type LargeItemWriter struct {
	ds   *Dataset
	name string
	t    ElemType
	f    *os.File
	aw   *align.Writer
}

// CreateLarge begins writing a new Large item named name with element type
// t. The returned writer must be aligned (AlignTo) before any element data
// and Closed when finished.
func (ds *Dataset) CreateLarge(name string, t ElemType) (*LargeItemWriter, error) {
	const op = "dds.Dataset.CreateLarge"
	if err := validateItemName(op, name); err != nil {
		return nil, err
	}
	if err := ds.resolveLargeCreate(op, name); err != nil {
		return nil, err
	}
	if _, ok := ValidType(int32(t)); !ok {
		return nil, invalidArg(op, "unrecognised element type")
	}

	path := filepath.Join(ds.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return nil, rfioerr.New(rfioerr.KindIO, op, name, err)
	}
	w, err := CreateLargeWriter(f, t)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &LargeItemWriter{ds: ds, name: name, t: t, f: f, aw: w}, nil
}

// AlignTo pads the stream to the next n-byte boundary; see align.Writer.
func (w *LargeItemWriter) AlignTo(n int) (bool, error) { return w.aw.AlignTo(n) }

// Write appends raw, already-encoded element bytes.
func (w *LargeItemWriter) Write(p []byte) (int, error) { return w.aw.Write(p) }

// WriteVector encodes and appends values in order.
func WriteVector[T any](w *LargeItemWriter, values []T) error {
	typ, ok := elemTypeOf[T]()
	if !ok {
		return invalidArg("dds.WriteVector", "unsupported element type")
	}
	if typ != w.t {
		return rfioerr.Newf(rfioerr.KindTypeMismatch, "dds.WriteVector", w.name,
			"writer has type %v, values are %v", w.t, typ)
	}
	return encodeElements(w.aw, values)
}

// Close finalises the file and registers it with the owning Dataset so it
// is immediately visible to Items/Get without a fresh directory scan.
func (w *LargeItemWriter) Close() error {
	const op = "dds.LargeItemWriter.Close"
	if err := w.f.Close(); err != nil {
		return rfioerr.New(rfioerr.KindIO, op, w.name, err)
	}
	if err := w.ds.ensureLargeScanned(); err != nil {
		return err
	}
	info, err := statAndDetect(filepath.Join(w.ds.dir, w.name))
	if err != nil {
		return err
	}
	w.ds.large[w.name] = info
	return nil
}

// Flush writes the header file if any Small item has changed since the
// last Flush (or since Open/Create).
func (ds *Dataset) Flush() error {
	const op = "dds.Dataset.Flush"
	if !ds.dirty {
		return nil
	}
	f, err := os.Create(filepath.Join(ds.dir, headerFileName))
	if err != nil {
		return rfioerr.New(rfioerr.KindIO, op, ds.dir, err)
	}
	defer f.Close()
	if err := WriteHeader(f, ds.small); err != nil {
		return err
	}
	ds.dirty = false
	return nil
}

// Close performs a best-effort Flush, discarding any error, mirroring
// spec.md §4.7's drop() semantics.
func (ds *Dataset) Close() error {
	_ = ds.Flush()
	return nil
}
