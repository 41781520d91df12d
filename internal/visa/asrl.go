// Copyright (c) 2026 Visamaster Team
// Visamaster - VISA instrument inventory and address toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package visa

import (
	"fmt"
	"strings"
)

const asrlMissingAll = "ASRL flag"

// ASRLAddress represents a serial (RS-232/RS-485) VISA resource address of
// the form
//
//	ASRL[board][::INSTR]
//
// where board is the serial port number.
type ASRLAddress struct {
	// Board is the optional serial port number, or -1 when absent.
	Board int
	// Instr records the INSTR resource class suffix.
	Instr bool
}

// Kind reports the interface class of the address.
func (a ASRLAddress) Kind() Kind { return KindASRL }

// String returns the canonical resource string for the address.
func (a ASRLAddress) String() string {
	var b strings.Builder
	b.WriteString("ASRL")
	if a.Board >= 0 {
		fmt.Fprintf(&b, "%d", a.Board)
	}
	if a.Instr {
		b.WriteString("::INSTR")
	}
	return b.String()
}

// ParseASRL parses a serial resource address.
func ParseASRL(address string) (ASRLAddress, error) {
	a := ASRLAddress{Board: -1}

	if err := checkPrefix(address, "ASRL", asrlMissingAll); err != nil {
		return a, err
	}
	sc := fieldScanner{addr: address, pos: 4}

	text, start, end, terminated := sc.next()
	if text != "" {
		n, err := parseDecimal(address, text, start, end, 32)
		if err != nil {
			return a, err
		}
		a.Board = n
	}
	if !terminated {
		return a, nil
	}

	rest, rs, re := sc.rest()
	if strings.ToUpper(rest) != "INSTR" {
		return a, &SuffixError{Want: "INSTR", Found: rest, Addr: address, Start: rs, End: re}
	}
	a.Instr = true
	return a, nil
}
