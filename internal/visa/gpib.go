// Copyright (c) 2026 Visamaster Team
// Visamaster - VISA instrument inventory and address toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package visa

import (
	"fmt"
	"strings"
)

const (
	gpibMissingAll     = "GPIB flag, Primary address"
	gpibMissingPrimary = "Primary address"

	gpibAddressMin = 0
	gpibAddressMax = 30
)

// GPIBAddress represents a GPIB VISA resource address of the form
//
//	GPIB[board]::primary address[::secondary address][::INSTR]
//
// Primary and secondary addresses are bus addresses in the range 0..30.
type GPIBAddress struct {
	// Board is the optional board index, or -1 when absent.
	Board int
	// Primary is the primary bus address of the device.
	Primary int
	// Secondary is the optional secondary address, or -1 when absent.
	Secondary int
	// Instr records the INSTR resource class suffix.
	Instr bool
}

// Kind reports the interface class of the address.
func (a GPIBAddress) Kind() Kind { return KindGPIB }

// String returns the canonical resource string for the address.
func (a GPIBAddress) String() string {
	var b strings.Builder
	b.WriteString("GPIB")
	if a.Board >= 0 {
		fmt.Fprintf(&b, "%d", a.Board)
	}
	fmt.Fprintf(&b, "::%d", a.Primary)
	if a.Secondary >= 0 {
		fmt.Fprintf(&b, "::%d", a.Secondary)
	}
	if a.Instr {
		b.WriteString("::INSTR")
	}
	return b.String()
}

// ParseGPIB parses a GPIB resource address.
func ParseGPIB(address string) (GPIBAddress, error) {
	a := GPIBAddress{Board: -1, Secondary: -1}

	if err := checkPrefix(address, "GPIB", gpibMissingAll); err != nil {
		return a, err
	}
	sc := fieldScanner{addr: address, pos: 4}

	// Optional board index.
	text, start, end, terminated := sc.next()
	if !terminated {
		return a, &IncompleteError{Addr: address, Missing: gpibMissingPrimary}
	}
	if text != "" {
		n, err := parseDecimal(address, text, start, end, 32)
		if err != nil {
			return a, err
		}
		a.Board = n
	}

	// Primary address.
	text, start, end, terminated = sc.next()
	if text == "" && !terminated {
		return a, &IncompleteError{Addr: address, Missing: gpibMissingPrimary}
	}
	primary, err := parseDecimal(address, text, start, end, 16)
	if err != nil {
		return a, err
	}
	if primary < gpibAddressMin || primary > gpibAddressMax {
		return a, &RangeError{Field: "GPIB primary address", Value: primary, Min: gpibAddressMin, Max: gpibAddressMax, Addr: address}
	}
	a.Primary = primary
	if !terminated {
		return a, nil
	}

	// Optional secondary address, then optional INSTR.
	text, start, end, terminated = sc.next()
	if !terminated && strings.EqualFold(text, "INSTR") {
		a.Instr = true
		return a, nil
	}
	secondary, err := parseDecimal(address, text, start, end, 16)
	if err != nil {
		return a, err
	}
	if secondary < gpibAddressMin || secondary > gpibAddressMax {
		return a, &RangeError{Field: "GPIB secondary address", Value: secondary, Min: gpibAddressMin, Max: gpibAddressMax, Addr: address}
	}
	a.Secondary = secondary
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
