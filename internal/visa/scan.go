// Copyright (c) 2026 Visamaster Team
// Visamaster - VISA instrument inventory and address toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package visa

import (
	"strconv"
	"strings"
)

// fieldScanner walks the "::"-separated fields of a resource string while
// tracking byte positions for error reporting.
type fieldScanner struct {
	addr string
	pos  int
}

// next returns the text up to the next "::" separator together with its byte
// span. end is the index of the first ':' of the separator, or the index of
// the last byte of the address when no separator follows. terminated reports
// whether a separator was consumed.
func (s *fieldScanner) next() (text string, start, end int, terminated bool) {
	start = s.pos
	if i := strings.Index(s.addr[s.pos:], "::"); i >= 0 {
		end = s.pos + i
		text = s.addr[s.pos:end]
		s.pos = end + 2
		return text, start, end, true
	}
	text = s.addr[s.pos:]
	s.pos = len(s.addr)
	return text, start, len(s.addr) - 1, false
}

// rest returns everything from the cursor to the end of the address, without
// splitting on separators. Used for trailing keyword fields such as INSTR.
func (s *fieldScanner) rest() (text string, start, end int) {
	start = s.pos
	text = s.addr[s.pos:]
	s.pos = len(s.addr)
	return text, start, len(s.addr) - 1
}

// peekByte returns the byte under the cursor without consuming it.
func (s *fieldScanner) peekByte() (byte, bool) {
	if s.pos >= len(s.addr) {
		return 0, false
	}
	return s.addr[s.pos], true
}

// checkPrefix validates the interface prefix of an address. It returns a nil
// error when the prefix matches, an IncompleteError when the address is a
// proper prefix of the expected keyword (the address was cut short), and a
// PrefixError otherwise.
func checkPrefix(address, want, missing string) error {
	if strings.HasPrefix(address, want) {
		return nil
	}
	if strings.HasPrefix(want, address) {
		return &IncompleteError{Addr: address, Missing: missing}
	}
	n := len(want)
	if len(address) < n {
		n = len(address)
	}
	return &PrefixError{Want: want, Found: address[:n]}
}

// parseDecimal parses a required decimal field of the given bit size,
// wrapping failures in a NumberError.
func parseDecimal(addr, text string, start, end, bits int) (int, error) {
	n, err := strconv.ParseUint(text, 10, bits)
	if err != nil {
		return 0, &NumberError{Found: text, Addr: addr, Start: start, End: end, Err: err}
	}
	return int(n), nil
}
