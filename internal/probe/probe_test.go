// Copyright (c) 2026 Visamaster Team
// Visamaster - VISA instrument inventory and address toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package probe

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/instrhub/visamaster/internal/visa"
)

// startMockInstrument runs a one-shot SCPI responder on a random local port
// and returns its address.
func startMockInstrument(t *testing.T, idn string) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		line, err := bufio.NewReader(conn).ReadString('\n')
		if err != nil {
			return
		}
		if strings.TrimSpace(line) == "*IDN?" {
			_, _ = conn.Write([]byte(idn + "\n"))
		}
	}()
	return ln.Addr().String()
}

func TestTarget(t *testing.T) {
	socket := visa.MustParse("TCPIP::10.0.0.5::5555::SOCKET")
	got, err := Target(socket)
	if err != nil {
		t.Fatalf("Target failed: %v", err)
	}
	if got != "10.0.0.5:5555" {
		t.Errorf("unexpected socket target: %q", got)
	}

	instr := visa.MustParse("TCPIP::scope-01.lab::inst0::INSTR")
	got, err = Target(instr)
	if err != nil {
		t.Fatalf("Target failed: %v", err)
	}
	if got != "scope-01.lab:5025" {
		t.Errorf("unexpected instr target: %q", got)
	}

	_, err = Target(visa.MustParse("GPIB0::22::INSTR"))
	var unsup *UnsupportedError
	if !errors.As(err, &unsup) {
		t.Errorf("expected UnsupportedError for a GPIB address, got %v", err)
	}
}

func TestIDNAgainstMockInstrument(t *testing.T) {
	const reply = "Keysight Technologies,34465A,MY57501234,A.02.17"
	addr := startMockInstrument(t, reply)

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("bad listener address: %v", err)
	}
	a, err := visa.ParseTCPIP("TCPIP::" + host + "::" + port + "::SOCKET")
	if err != nil {
		t.Fatalf("ParseTCPIP failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	id, raw, err := IDN(ctx, a)
	if err != nil {
		t.Fatalf("IDN failed: %v", err)
	}
	if raw != reply {
		t.Errorf("unexpected raw reply: %q", raw)
	}
	if id.Manufacturer != "Keysight Technologies" || id.Model != "34465A" {
		t.Errorf("unexpected identity: %+v", id)
	}
}

func TestParseIDN(t *testing.T) {
	id, err := ParseIDN("ACME, PSU-300 ,SN42,1.0,extra")
	if err != nil {
		t.Fatalf("ParseIDN failed: %v", err)
	}
	if id.Model != "PSU-300" {
		t.Errorf("fields not trimmed: %+v", id)
	}
	if id.Firmware != "1.0,extra" {
		t.Errorf("surplus commas should stay in the firmware field: %q", id.Firmware)
	}

	if _, err := ParseIDN("just-two,fields"); err == nil {
		t.Errorf("expected an error for a short reply")
	}
}
