/*******************************************************************************
*
* Fixed-format header-record field parsing (spec.md §4.9): an 80-byte
* record's keyword occupies columns 1-8, "= " occupies 9-10, and the value
* occupies the fixed-format region beginning at column 11. Grounded on
* rpm/header.go's exact-width field decoding discipline -- no scanning past
* a known-width field, explicit bounds on every slice.
*
*******************************************************************************/

package rfits

import (
	"strconv"
	"strings"

	"github.com/nrao/rfio/rfioerr"
)

// keywordOf extracts and validates columns 1-8 of a header record: up to 8
// bytes of {A-Z,0-9,_,-}, right-padded with spaces. Returns the trimmed
// keyword text.
func keywordOf(rec []byte) (string, error) {
	const op = "rfits.keywordOf"
	kw := rec[:8]
	seenSpace := false
	for _, c := range kw {
		if c == ' ' {
			seenSpace = true
			continue
		}
		if seenSpace {
			return "", rfioerr.Newf(rfioerr.KindMalformed, op, "", "keyword %q has a non-space byte after padding began", kw)
		}
		if !((c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' || c == '-') {
			return "", rfioerr.Newf(rfioerr.KindMalformed, op, "", "keyword %q contains an illegal byte", kw)
		}
	}
	return strings.TrimRight(string(kw), " "), nil
}

// parseFixedInt parses columns 11-30 (0-indexed 10:30) as a right-justified
// signed decimal, requiring column 31 (index 30) to be a space or '/'.
func parseFixedInt(rec []byte, keyword string) (int64, error) {
	const op = "rfits.parseFixedInt"
	if len(rec) < 31 {
		return 0, rfioerr.Newf(rfioerr.KindMalformed, op, keyword, "record too short for a fixed-format integer")
	}
	if rec[30] != ' ' && rec[30] != '/' {
		return 0, rfioerr.Newf(rfioerr.KindMalformed, op, keyword, "column 31 must be space or '/'")
	}
	field := string(rec[10:30])
	trimmed := strings.TrimLeft(field, " ")
	if trimmed == "" {
		return 0, rfioerr.Newf(rfioerr.KindMalformed, op, keyword, "empty integer value")
	}
	if strings.Contains(trimmed, " ") {
		return 0, rfioerr.Newf(rfioerr.KindMalformed, op, keyword, "embedded space in integer value %q", field)
	}
	v, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0, rfioerr.Newf(rfioerr.KindMalformed, op, keyword, "malformed integer value %q: %v", field, err)
	}
	return v, nil
}

// parseFixedLogical parses a T/F logical value at column 30 (index 29).
func parseFixedLogical(rec []byte, keyword string) (bool, error) {
	const op = "rfits.parseFixedLogical"
	if len(rec) < 30 {
		return false, rfioerr.Newf(rfioerr.KindMalformed, op, keyword, "record too short for a logical value")
	}
	switch rec[29] {
	case 'T':
		return true, nil
	case 'F':
		return false, nil
	default:
		return false, rfioerr.Newf(rfioerr.KindMalformed, op, keyword, "column 30 must be T or F")
	}
}

// parseFixedString parses columns 11-80 as a quoted string: it must begin
// with a single quote; '' escapes collapse to a single quote; trailing
// spaces inside the quoted region are stripped; only spaces and an optional
// '/' comment may follow the closing quote.
func parseFixedString(rec []byte, keyword string) (string, error) {
	const op = "rfits.parseFixedString"
	if len(rec) < 80 {
		return "", rfioerr.Newf(rfioerr.KindMalformed, op, keyword, "record too short for a fixed-format string")
	}
	field := rec[10:80]
	if len(field) == 0 || field[0] != '\'' {
		return "", rfioerr.Newf(rfioerr.KindMalformed, op, keyword, "string value must begin with a quote")
	}
	var sb strings.Builder
	i := 1
	closed := false
	for i < len(field) {
		c := field[i]
		if c < 0x20 || c > 0x7E {
			return "", rfioerr.Newf(rfioerr.KindMalformed, op, keyword, "non-printable byte in string value")
		}
		if c == '\'' {
			if i+1 < len(field) && field[i+1] == '\'' {
				sb.WriteByte('\'')
				i += 2
				continue
			}
			i++
			closed = true
			break
		}
		sb.WriteByte(c)
		i++
	}
	if !closed {
		return "", rfioerr.Newf(rfioerr.KindMalformed, op, keyword, "unterminated string value")
	}
	for _, c := range field[i:] {
		if c == ' ' {
			continue
		}
		if c == '/' {
			break
		}
		return "", rfioerr.Newf(rfioerr.KindMalformed, op, keyword, "illegal trailing content after string value")
	}
	return strings.TrimRight(sb.String(), " "), nil
}
