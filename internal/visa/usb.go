// Copyright (c) 2026 Visamaster Team
// Visamaster - VISA instrument inventory and address toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package visa

import (
	"fmt"
	"strconv"
	"strings"
)

// Missing-field lists for USB incomplete-address errors. The wording is kept
// stable because it is part of the user-facing diagnostics.
const (
	usbMissingAll    = "USB flag, Manufacture Code, Model Number, Serial number"
	usbMissingManuf  = "Manufacture Code, Model Number, Serial number"
	usbMissingModel  = "Model Number, Serial number"
	usbMissingSerial = "Serial Number"
)

// USBAddress represents a USB VISA resource address of the form
//
//	USB[board]::manufacturer ID::model code::serial number[::USB interface number][::INSTR]
//
// The manufacturer ID and model code are always written as 0x-prefixed hex.
type USBAddress struct {
	// Board is the optional board index, or -1 when absent.
	Board int
	// ManufacturerID is the USB vendor ID. Always hex in the UI.
	ManufacturerID uint16
	// ModelCode is the USB product ID. Always hex in the UI.
	ModelCode uint16
	// SerialNumber is not actually a number. For UI purposes only.
	SerialNumber string
	// InterfaceNumber is the optional USB interface number, or -1 when
	// absent. When absent the lowest-numbered interface is used.
	InterfaceNumber int
	// Instr records whether the address carries the INSTR resource class
	// suffix, which lets the controller interact with the device.
	Instr bool
}

// Kind reports the interface class of the address.
func (a USBAddress) Kind() Kind { return KindUSB }

// String returns the canonical resource string for the address.
func (a USBAddress) String() string {
	var b strings.Builder
	b.WriteString("USB")
	if a.Board >= 0 {
		fmt.Fprintf(&b, "%d", a.Board)
	}
	fmt.Fprintf(&b, "::0x%X::0x%X::%s", a.ManufacturerID, a.ModelCode, a.SerialNumber)
	if a.InterfaceNumber >= 0 {
		fmt.Fprintf(&b, "::%d", a.InterfaceNumber)
	}
	if a.Instr {
		b.WriteString("::INSTR")
	}
	return b.String()
}

// ParseUSB parses a USB resource address.
func ParseUSB(address string) (USBAddress, error) {
	a := USBAddress{Board: -1, InterfaceNumber: -1}

	if err := checkPrefix(address, "USB", usbMissingAll); err != nil {
		return a, err
	}
	sc := fieldScanner{addr: address, pos: 3}

	// Optional board index.
	text, start, end, terminated := sc.next()
	if !terminated {
		return a, &IncompleteError{Addr: address, Missing: usbMissingManuf}
	}
	if text != "" {
		n, err := strconv.ParseUint(text, 10, 32)
		if err != nil {
			return a, &NumberError{Found: text, Addr: address, Start: start, End: end, Err: err}
		}
		a.Board = int(n)
	}

	var err error
	if a.ManufacturerID, err = parseUSBHexField(address, &sc, usbMissingManuf); err != nil {
		return a, err
	}
	if a.ModelCode, err = parseUSBHexField(address, &sc, usbMissingModel); err != nil {
		return a, err
	}

	// Serial number. Anything non-empty is accepted.
	serial, _, _, terminated := sc.next()
	a.SerialNumber = serial
	if !terminated {
		if serial == "" {
			return a, &IncompleteError{Addr: address, Missing: usbMissingSerial}
		}
		return a, nil
	}

	// An INSTR suffix may follow directly, skipping the interface number.
	if b, ok := sc.peekByte(); ok && (b == 'I' || b == 'i') {
		return a, parseUSBInstr(address, &sc, &a)
	}

	text, start, end, terminated = sc.next()
	n, err := strconv.ParseUint(text, 10, 16)
	if err != nil {
		return a, &NumberError{Found: text, Addr: address, Start: start, End: end, Err: err}
	}
	a.InterfaceNumber = int(n)
	if terminated {
		return a, parseUSBInstr(address, &sc, &a)
	}
	return a, nil
}

// parseUSBHexField reads a required 0x-prefixed hex field (manufacturer ID or
// model code). The hex-prefix check happens before the completeness check so
// a malformed field is reported as such even when the address is cut short.
func parseUSBHexField(addr string, sc *fieldScanner, missing string) (uint16, error) {
	text, start, end, terminated := sc.next()
	if len(text) >= 1 && text[0] != '0' {
		return 0, &HexError{Found: text, Addr: addr, Start: start, End: end}
	}
	if len(text) >= 2 && text[1] != 'x' && text[1] != 'X' {
		return 0, &HexError{Found: text[1:], Addr: addr, Start: start, End: end}
	}
	if !terminated {
		return 0, &IncompleteError{Addr: addr, Missing: missing}
	}
	var digits string
	if len(text) > 2 {
		digits = text[2:]
	}
	n, err := strconv.ParseUint(digits, 16, 16)
	if err != nil {
		return 0, &NumberError{Found: digits, Addr: addr, Start: start, End: end, Err: err}
	}
	return uint16(n), nil
}

// parseUSBInstr consumes the trailing INSTR keyword, case-insensitively.
func parseUSBInstr(addr string, sc *fieldScanner, a *USBAddress) error {
	text, start, end := sc.rest()
	if strings.ToUpper(text) != "INSTR" {
		return &SuffixError{Want: "INSTR", Found: text, Addr: addr, Start: start, End: end}
	}
	a.Instr = true
	return nil
}
