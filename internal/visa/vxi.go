// Copyright (c) 2026 Visamaster Team
// Visamaster - VISA instrument inventory and address toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package visa

import (
	"fmt"
	"strings"
)

const (
	vxiMissingAll     = "VXI flag, Logical address"
	vxiMissingLogical = "Logical address"

	vxiLogicalMin = 0
	vxiLogicalMax = 255
)

// VXIAddress represents a VXI VISA resource address of the form
//
//	VXI[board]::logical address[::INSTR]
//
// The logical address identifies a device in the mainframe, 0..255.
type VXIAddress struct {
	// Board is the optional board index, or -1 when absent.
	Board int
	// Logical is the VXI logical address of the device.
	Logical int
	// Instr records the INSTR resource class suffix.
	Instr bool
}

// Kind reports the interface class of the address.
func (a VXIAddress) Kind() Kind { return KindVXI }

// String returns the canonical resource string for the address.
func (a VXIAddress) String() string {
	var b strings.Builder
	b.WriteString("VXI")
	if a.Board >= 0 {
		fmt.Fprintf(&b, "%d", a.Board)
	}
	fmt.Fprintf(&b, "::%d", a.Logical)
	if a.Instr {
		b.WriteString("::INSTR")
	}
	return b.String()
}

// ParseVXI parses a VXI resource address.
func ParseVXI(address string) (VXIAddress, error) {
	a := VXIAddress{Board: -1}

	if err := checkPrefix(address, "VXI", vxiMissingAll); err != nil {
		return a, err
	}
	sc := fieldScanner{addr: address, pos: 3}

	// Optional board index.
	text, start, end, terminated := sc.next()
	if !terminated {
		return a, &IncompleteError{Addr: address, Missing: vxiMissingLogical}
	}
	if text != "" {
		n, err := parseDecimal(address, text, start, end, 32)
		if err != nil {
			return a, err
		}
		a.Board = n
	}

	// Logical address.
	text, start, end, terminated = sc.next()
	if text == "" && !terminated {
		return a, &IncompleteError{Addr: address, Missing: vxiMissingLogical}
	}
	logical, err := parseDecimal(address, text, start, end, 16)
	if err != nil {
		return a, err
	}
	if logical < vxiLogicalMin || logical > vxiLogicalMax {
		return a, &RangeError{Field: "VXI logical address", Value: logical, Min: vxiLogicalMin, Max: vxiLogicalMax, Addr: address}
	}
	a.Logical = logical
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
