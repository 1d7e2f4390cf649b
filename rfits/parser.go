/*******************************************************************************
*
* FITS-PARSE: the random-access HDU index builder (spec.md §4.10). Walks a
* seekable file HDU by HDU, parsing only header records and skipping data
* regions with Seek rather than reading them, the way dump-package/impl's
* archive readers skip payload bytes they don't need to inspect.
*
*******************************************************************************/

package rfits

import (
	"bytes"
	"io"

	"github.com/nrao/rfio/rfioerr"
)

// Parser indexes the HDUs of a seekable RFITS file without reading data
// regions.
type Parser struct {
	r                 io.ReadSeeker
	hdus              []ParsedHdu
	specialRecordSize int64
}

// NewParser builds the full HDU index of r.
func NewParser(r io.ReadSeeker) (*Parser, error) {
	const op = "rfits.NewParser"

	fileLen, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, rfioerr.New(rfioerr.KindIO, op, "", err)
	}
	if fileLen%BlockSize != 0 {
		return nil, rfioerr.Newf(rfioerr.KindMalformed, op, "", "file length %d is not a multiple of %d", fileLen, BlockSize)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, rfioerr.New(rfioerr.KindIO, op, "", err)
	}

	p := &Parser{r: r}
	offset := int64(0)
	for offset < fileLen {
		first, err := readBlock(r)
		if err != nil {
			return nil, err
		}
		if offset == 0 {
			if !bytes.Equal(first[:30], canonicalSimplePrefix()) {
				return nil, rfioerr.New(rfioerr.KindMalformed, op, "", nil)
			}
		} else if !bytes.Equal(first[:10], []byte("XTENSION= ")) {
			p.specialRecordSize = fileLen - offset
			break
		}

		hdu, err := p.parseOneHdu(first, offset)
		if err != nil {
			return nil, err
		}
		dataBytes, err := hdu.DataByteLen()
		if err != nil {
			return nil, err
		}
		headerBytes := int64(hdu.NHeaderRecords) * RecordSize
		nextOffset := offset + roundUpBlock(headerBytes) + roundUpBlock(dataBytes)

		p.hdus = append(p.hdus, hdu)

		if _, err := r.Seek(nextOffset, io.SeekStart); err != nil {
			return nil, rfioerr.New(rfioerr.KindIO, op, "", err)
		}
		offset = nextOffset
	}

	return p, nil
}

// Hdus returns the parsed HDU index.
func (p *Parser) Hdus() []ParsedHdu { return p.hdus }

// SpecialRecordSize returns the byte count of the trailing span that is not
// part of any HDU.
func (p *Parser) SpecialRecordSize() int64 { return p.specialRecordSize }

// IntoInner returns the underlying reader.
func (p *Parser) IntoInner() io.ReadSeeker { return p.r }

func readBlock(r io.Reader) ([]byte, error) {
	const op = "rfits.readBlock"
	buf := make([]byte, BlockSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, rfioerr.New(rfioerr.KindUnexpectedEOF, op, "", err)
	}
	return buf, nil
}

// parseOneHdu parses the header of the HDU whose first block is already
// loaded into first, reading further blocks from p.r as needed.
func (p *Parser) parseOneHdu(first []byte, headerOffset int64) (ParsedHdu, error) {
	const op = "rfits.Parser.parseOneHdu"
	isPrimary := headerOffset == 0

	hdu := ParsedHdu{HeaderByteOffset: headerOffset, Gcount: 1}
	var xtension string

	block := first
	recordIdx := 0
	nRecords := 0
	bitpixSet, naxisSet := false, false
	groupsTrue := false
	var naxis []int64
	naxisCount := 0

	nextRecord := func() ([]byte, error) {
		if recordIdx >= BlockSize/RecordSize {
			b, err := readBlock(p.r)
			if err != nil {
				return nil, err
			}
			block = b
			recordIdx = 0
		}
		start := recordIdx * RecordSize
		rec := block[start : start+RecordSize]
		recordIdx++
		nRecords++
		return rec, nil
	}

	rec, err := nextRecord()
	if err != nil {
		return ParsedHdu{}, err
	}
	if !isPrimary {
		xtension, err = parseFixedString(rec, "XTENSION")
		if err != nil {
			return ParsedHdu{}, err
		}
	}

	for {
		rec, err = nextRecord()
		if err != nil {
			return ParsedHdu{}, err
		}
		kw, err := keywordOf(rec)
		if err != nil {
			return ParsedHdu{}, err
		}
		switch {
		case kw == "BITPIX":
			v, err := parseFixedInt(rec, kw)
			if err != nil {
				return ParsedHdu{}, err
			}
			b, ok := ValidBitpix(v)
			if !ok {
				return ParsedHdu{}, rfioerr.Newf(rfioerr.KindMalformed, op, kw, "unrecognised BITPIX %d", v)
			}
			hdu.Bitpix = b
			bitpixSet = true
		case kw == "NAXIS":
			v, err := parseFixedInt(rec, kw)
			if err != nil {
				return ParsedHdu{}, err
			}
			if v < 0 || v > 999 {
				return ParsedHdu{}, rfioerr.Newf(rfioerr.KindMalformed, op, kw, "NAXIS %d out of range", v)
			}
			naxisCount = int(v)
			naxisSet = true
			naxis = make([]int64, 0, naxisCount)
		case naxisOrdinal(kw) > 0:
			n := naxisOrdinal(kw)
			if !naxisSet || n != len(naxis)+1 {
				return ParsedHdu{}, rfioerr.Newf(rfioerr.KindMalformed, op, kw, "NAXIS%d out of order", n)
			}
			v, err := parseFixedInt(rec, kw)
			if err != nil {
				return ParsedHdu{}, err
			}
			naxis = append(naxis, v)
		case kw == "GROUPS":
			v, err := parseFixedLogical(rec, kw)
			if err != nil {
				return ParsedHdu{}, err
			}
			groupsTrue = v
		case kw == "PCOUNT":
			v, err := parseFixedInt(rec, kw)
			if err != nil {
				return ParsedHdu{}, err
			}
			if !isPrimary || groupsTrue {
				hdu.Pcount = v
			}
		case kw == "GCOUNT":
			v, err := parseFixedInt(rec, kw)
			if err != nil {
				return ParsedHdu{}, err
			}
			if !isPrimary || groupsTrue {
				hdu.Gcount = v
			}
		case kw == "EXTNAME":
			name, err := parseFixedString(rec, kw)
			if err != nil {
				return ParsedHdu{}, err
			}
			hdu.Name = name
		case kw == "END":
			goto done
		}
	}

done:
	if !bitpixSet || !naxisSet || len(naxis) < naxisCount {
		return ParsedHdu{}, rfioerr.New(rfioerr.KindMalformed, op, "", nil)
	}
	if !isPrimary && hdu.Name == "" {
		return ParsedHdu{}, rfioerr.New(rfioerr.KindMalformed, op, "EXTNAME", nil)
	}

	hdu.NHeaderRecords = nRecords
	if isPrimary {
		if groupsTrue {
			hdu.Kind = PrimaryRandomGroups
			if len(naxis) > 0 {
				naxis = naxis[1:]
			}
		} else if naxisCount == 0 {
			hdu.Kind = PrimaryNoData
		} else {
			hdu.Kind = PrimaryArray
		}
	} else {
		switch xtension {
		case "IMAGE":
			hdu.Kind = ImageExtension
		case "TABLE":
			hdu.Kind = AsciiTableExtension
		case "BINTABLE":
			hdu.Kind = BinaryTableExtension
		default:
			hdu.Kind = OtherExtension
			hdu.ExtensionToken = xtension
		}
	}
	hdu.Naxis = naxis

	return hdu, nil
}
