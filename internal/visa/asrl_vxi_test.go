// Copyright (c) 2026 Visamaster Team
// Visamaster - VISA instrument inventory and address toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package visa

import (
	"errors"
	"testing"
)

func TestParseASRLRoundTrip(t *testing.T) {
	for _, addr := range []string{"ASRL", "ASRL1", "ASRL1::INSTR", "ASRL10::INSTR"} {
		a, err := ParseASRL(addr)
		if err != nil {
			t.Fatalf("ParseASRL(%q) failed: %v", addr, err)
		}
		if got := a.String(); got != addr {
			t.Errorf("round trip mismatch: got %q want %q", got, addr)
		}
	}
}

func TestParseASRLBadSuffix(t *testing.T) {
	_, err := ParseASRL("ASRL1::SOCKET")
	var sufErr *SuffixError
	if !errors.As(err, &sufErr) {
		t.Fatalf("expected SuffixError, got %v", err)
	}
	if sufErr.Found != "SOCKET" {
		t.Errorf("unexpected Found: %q", sufErr.Found)
	}
}

func TestParseVXIRoundTrip(t *testing.T) {
	for _, addr := range []string{"VXI::24", "VXI0::1", "VXI0::255::INSTR"} {
		a, err := ParseVXI(addr)
		if err != nil {
			t.Fatalf("ParseVXI(%q) failed: %v", addr, err)
		}
		if got := a.String(); got != addr {
			t.Errorf("round trip mismatch: got %q want %q", got, addr)
		}
	}
}

func TestParseVXILogicalRange(t *testing.T) {
	_, err := ParseVXI("VXI0::300")
	var rangeErr *RangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("expected RangeError for logical address 300, got %v", err)
	}
}
