// Copyright (c) 2026 Visamaster Team
// Visamaster - VISA instrument inventory and address toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package visa

import (
	"fmt"
	"strings"
)

const (
	tcpipMissingAll  = "TCPIP flag, Host name"
	tcpipMissingHost = "Host name"
	tcpipMissingLAN  = "LAN device name"
)

// TCPIPAddress represents a LAN VISA resource address. Two grammars share the
// TCPIP prefix:
//
//	TCPIP[board]::host name[::LAN device name][::INSTR]
//	TCPIP[board]::host name::port::SOCKET
//
// The first names a VXI-11/HiSLIP style instrument endpoint, the second a raw
// TCP socket.
type TCPIPAddress struct {
	// Board is the optional board index, or -1 when absent.
	Board int
	// Host is the host name or IP address of the instrument.
	Host string
	// LANDevice is the LAN device name (e.g. "inst0"), empty when the
	// address does not spell one out.
	LANDevice string
	// Port is the TCP port of the SOCKET form, or -1 otherwise.
	Port int
	// Socket reports whether this is the raw-socket form.
	Socket bool
	// Instr records the INSTR resource class suffix.
	Instr bool
}

// Kind reports the interface class of the address.
func (a TCPIPAddress) Kind() Kind { return KindTCPIP }

// String returns the canonical resource string for the address.
func (a TCPIPAddress) String() string {
	var b strings.Builder
	b.WriteString("TCPIP")
	if a.Board >= 0 {
		fmt.Fprintf(&b, "%d", a.Board)
	}
	fmt.Fprintf(&b, "::%s", a.Host)
	if a.Socket {
		fmt.Fprintf(&b, "::%d::SOCKET", a.Port)
		return b.String()
	}
	if a.LANDevice != "" {
		fmt.Fprintf(&b, "::%s", a.LANDevice)
	}
	if a.Instr {
		b.WriteString("::INSTR")
	}
	return b.String()
}

// ParseTCPIP parses a TCPIP resource address.
func ParseTCPIP(address string) (TCPIPAddress, error) {
	a := TCPIPAddress{Board: -1, Port: -1}

	if err := checkPrefix(address, "TCPIP", tcpipMissingAll); err != nil {
		return a, err
	}
	sc := fieldScanner{addr: address, pos: 5}

	// Optional board index.
	text, start, end, terminated := sc.next()
	if !terminated {
		return a, &IncompleteError{Addr: address, Missing: tcpipMissingHost}
	}
	if text != "" {
		n, err := parseDecimal(address, text, start, end, 32)
		if err != nil {
			return a, err
		}
		a.Board = n
	}

	host, _, _, terminated := sc.next()
	if host == "" {
		return a, &IncompleteError{Addr: address, Missing: tcpipMissingHost}
	}
	a.Host = host
	if !terminated {
		return a, nil
	}

	// One trailing field: either INSTR or a LAN device name.
	f1, s1, e1, terminated := sc.next()
	if !terminated {
		switch {
		case strings.EqualFold(f1, "INSTR"):
			a.Instr = true
		case f1 == "":
			return a, &IncompleteError{Addr: address, Missing: tcpipMissingLAN}
		default:
			a.LANDevice = f1
		}
		return a, nil
	}

	// Two trailing fields: "port::SOCKET" or "LAN device::INSTR".
	f2, s2, e2 := sc.rest()
	if strings.EqualFold(f2, "SOCKET") {
		port, err := parseDecimal(address, f1, s1, e1, 16)
		if err != nil {
			return a, err
		}
		a.Port = port
		a.Socket = true
		return a, nil
	}
	if f1 == "" {
		return a, &IncompleteError{Addr: address, Missing: tcpipMissingLAN}
	}
	a.LANDevice = f1
	if strings.ToUpper(f2) != "INSTR" {
		return a, &SuffixError{Want: "INSTR", Found: f2, Addr: address, Start: s2, End: e2}
	}
	a.Instr = true
	return a, nil
}
