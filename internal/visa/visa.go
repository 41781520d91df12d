// Copyright (c) 2026 Visamaster Team
// Visamaster - VISA instrument inventory and address toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// package visa implements parsing and formatting of VISA resource address
// strings, the identifiers used to name test-and-measurement instruments
// (e.g. "USB::0x1A34::0x5678::A22-5::INSTR" or "TCPIP::10.0.0.5::inst0::INSTR").
//
// Each interface class (USB, TCPIP, GPIB, ASRL, VXI) has its own address type
// and parser. Parsers return structured errors that carry the offending
// substring and its byte positions so callers can point users at the exact
// spot in a mistyped address. For every successfully parsed address a,
// Parse(a.String()) yields an equal value.
package visa // import "github.com/instrhub/visamaster/internal/visa"

import (
	"fmt"
	"strings"
)

// Kind identifies the VISA interface class of a resource address.
type Kind int

const (
	KindUnknown Kind = iota
	KindUSB
	KindTCPIP
	KindGPIB
	KindASRL
	KindVXI
)

// String returns the canonical prefix for the interface class.
func (k Kind) String() string {
	switch k {
	case KindUSB:
		return "USB"
	case KindTCPIP:
		return "TCPIP"
	case KindGPIB:
		return "GPIB"
	case KindASRL:
		return "ASRL"
	case KindVXI:
		return "VXI"
	default:
		return "UNKNOWN"
	}
}

// Address is implemented by all VISA resource address types.
type Address interface {
	// String returns the canonical resource string for the address.
	String() string
	// Kind reports the interface class of the address.
	Kind() Kind
}

// Parse parses a VISA resource string, dispatching on the interface prefix.
func Parse(address string) (Address, error) {
	switch {
	case strings.HasPrefix(address, "USB"):
		a, err := ParseUSB(address)
		if err != nil {
			return nil, err
		}
		return a, nil
	case strings.HasPrefix(address, "TCPIP"):
		a, err := ParseTCPIP(address)
		if err != nil {
			return nil, err
		}
		return a, nil
	case strings.HasPrefix(address, "GPIB"):
		a, err := ParseGPIB(address)
		if err != nil {
			return nil, err
		}
		return a, nil
	case strings.HasPrefix(address, "ASRL"):
		a, err := ParseASRL(address)
		if err != nil {
			return nil, err
		}
		return a, nil
	case strings.HasPrefix(address, "VXI"):
		a, err := ParseVXI(address)
		if err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, &UnknownInterfaceError{Addr: address}
	}
}

// MustParse is like Parse but panics on failure. It is intended for
// address literals in tests and initialization code.
func MustParse(address string) Address {
	a, err := Parse(address)
	if err != nil {
		panic(fmt.Sprintf("visa: MustParse(%q): %v", address, err))
	}
	return a
}
