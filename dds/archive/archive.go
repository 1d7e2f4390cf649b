/*******************************************************************************
*
* Package archive packs and unpacks a DDS directory as a single ar or cpio
* stream, for shipping or archiving a dataset as one file. Grounded on
* dump-package/impl/archive.go's DumpAr/DumpCpio entry-walking shape and
* rpm/payload.go's MakePayload cpio-writing side.
*
*******************************************************************************/

package archive

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/blakesmith/ar"
	cpio "github.com/surma/gocpio"

	"github.com/nrao/rfio/dds"
	"github.com/nrao/rfio/rfioerr"
)

const headerEntryName = "header"

// entries returns the name-sorted list of archive member names for ds: the
// header file first (it never collides lexicographically because DDS item
// names cannot equal "header"), then every item in sorted order, mirroring
// dumpArchiveGeneric's sort.Strings(names) pass.
func entries(ds *dds.Dataset) ([]string, error) {
	names, err := ds.ItemNames()
	if err != nil {
		return nil, err
	}
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	return append([]string{headerEntryName}, sorted...), nil
}

func readMember(ds *dds.Dataset, name string) ([]byte, error) {
	if name == headerEntryName {
		return ioutil.ReadFile(filepath.Join(ds.Dir(), headerEntryName))
	}
	h, ok, err := ds.Get(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, rfioerr.Newf(rfioerr.KindNotFound, "archive.readMember", name, "item vanished during export")
	}
	return h.RawBytes()
}

// ExportAr writes ds as a Unix ar archive: the header file, then every item,
// each entry with Mode 0644 and Uid/Gid 0 for reproducibility.
func ExportAr(ds *dds.Dataset, w io.Writer) error {
	const op = "archive.ExportAr"
	names, err := entries(ds)
	if err != nil {
		return err
	}
	aw := ar.NewWriter(w)
	if err := aw.WriteGlobalHeader(); err != nil {
		return rfioerr.New(rfioerr.KindIO, op, "", err)
	}
	for _, name := range names {
		data, err := readMember(ds, name)
		if err != nil {
			return err
		}
		hdr := &ar.Header{
			Name:    name,
			ModTime: time.Unix(0, 0),
			Uid:     0,
			Gid:     0,
			Mode:    0644,
			Size:    int64(len(data)),
		}
		if err := aw.WriteHeader(hdr); err != nil {
			return rfioerr.New(rfioerr.KindIO, op, name, err)
		}
		if _, err := aw.Write(data); err != nil {
			return rfioerr.New(rfioerr.KindIO, op, name, err)
		}
	}
	return nil
}

// ExportCpio writes ds as a "newc"-framed cpio stream terminated by the
// conventional TRAILER!!! entry.
func ExportCpio(ds *dds.Dataset, w io.Writer) error {
	const op = "archive.ExportCpio"
	names, err := entries(ds)
	if err != nil {
		return err
	}
	cw := cpio.NewWriter(w)
	for _, name := range names {
		data, err := readMember(ds, name)
		if err != nil {
			return err
		}
		hdr := &cpio.Header{
			Name: name,
			Mode: 0644,
			Uid:  0,
			Gid:  0,
			Size: int64(len(data)),
			Type: cpio.TYPE_REG,
		}
		if err := cw.WriteHeader(hdr); err != nil {
			return rfioerr.New(rfioerr.KindIO, op, name, err)
		}
		if _, err := cw.Write(data); err != nil {
			return rfioerr.New(rfioerr.KindIO, op, name, err)
		}
	}
	if err := cw.Close(); err != nil {
		return rfioerr.New(rfioerr.KindIO, op, "", err)
	}
	return nil
}

// ImportCpio reads a cpio stream written by ExportCpio back into a freshly
// created dataset directory at dir.
func ImportCpio(r io.Reader, dir string) (*dds.Dataset, error) {
	const op = "archive.ImportCpio"

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, rfioerr.New(rfioerr.KindIO, op, dir, err)
	}

	cr := cpio.NewReader(r)
	var headerBytes []byte
	type largeMember struct {
		name string
		data []byte
	}
	var largeMembers []largeMember

	for {
		hdr, err := cr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, rfioerr.New(rfioerr.KindIO, op, "", err)
		}
		if hdr.IsTrailer() {
			break
		}
		data, err := ioutil.ReadAll(cr)
		if err != nil {
			return nil, rfioerr.New(rfioerr.KindIO, op, hdr.Name, err)
		}
		if hdr.Name == headerEntryName {
			headerBytes = data
			continue
		}
		largeMembers = append(largeMembers, largeMember{name: hdr.Name, data: data})
	}

	if headerBytes != nil {
		path := filepath.Join(dir, headerEntryName)
		if err := ioutil.WriteFile(path, headerBytes, 0644); err != nil {
			return nil, rfioerr.New(rfioerr.KindIO, op, path, err)
		}
	}
	for _, m := range largeMembers {
		path := filepath.Join(dir, m.name)
		if err := ioutil.WriteFile(path, m.data, 0644); err != nil {
			return nil, rfioerr.New(rfioerr.KindIO, op, path, err)
		}
	}

	return dds.Open(dir)
}
