// Copyright (c) 2026 Visamaster Team
// Visamaster - VISA instrument inventory and address toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// Errors returned by the address parsers. Positions are byte offsets into the
// original address string: Start is the first byte of the offending field and
// End is the byte of the separator colon that terminated it (or of the last
// byte of the address when the field ran to the end).
package visa

import "fmt"

// PrefixError reports an address that does not start with the expected
// interface prefix.
type PrefixError struct {
	Want  string
	Found string
}

func (e *PrefixError) Error() string {
	return fmt.Sprintf("Expected %q at address start, found %q", e.Want, e.Found)
}

// NumberError reports a field that failed to parse as a number.
type NumberError struct {
	Found string
	Addr  string
	Start int
	End   int
	Err   error
}

func (e *NumberError) Error() string {
	return fmt.Sprintf("Found %q instead of a number at position %d to %d of \n%q", e.Found, e.Start, e.End, e.Addr)
}

// Unwrap returns the underlying strconv error, if any.
func (e *NumberError) Unwrap() error { return e.Err }

// HexError reports a field that is required to be hexadecimal but is not
// written with the mandatory "0x" prefix.
type HexError struct {
	Found string
	Addr  string
	Start int
	End   int
}

func (e *HexError) Error() string {
	return fmt.Sprintf("Invalid hexidecimal number: %q at position %d to %d in\n %q\nNumber must start with '0x'", e.Found, e.Start, e.End, e.Addr)
}

// IncompleteError reports an address that ended before all required fields
// were present. Missing names the remaining fields.
type IncompleteError struct {
	Addr    string
	Missing string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%q is an incomplete address missing: %s", e.Addr, e.Missing)
}

// SuffixError reports a trailing keyword (INSTR, SOCKET) that was indicated
// but malformed.
type SuffixError struct {
	Want  string
	Found string
	Addr  string
	Start int
	End   int
}

func (e *SuffixError) Error() string {
	return fmt.Sprintf("In address %q was indicated but instead %q was found at %d to %d of\n %q", e.Want, e.Found, e.Start, e.End, e.Addr)
}

// RangeError reports a numeric field outside its allowed range.
type RangeError struct {
	Field string
	Value int
	Min   int
	Max   int
	Addr  string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s %d is outside the valid range %d to %d in %q", e.Field, e.Value, e.Min, e.Max, e.Addr)
}

// UnknownInterfaceError reports an address whose interface prefix matches no
// known VISA interface class.
type UnknownInterfaceError struct {
	Addr string
}

func (e *UnknownInterfaceError) Error() string {
	return fmt.Sprintf("Unrecognized interface prefix in %q; expected USB, TCPIP, GPIB, ASRL or VXI", e.Addr)
}
