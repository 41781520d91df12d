// Copyright (c) 2026 Visamaster Team
// Visamaster - VISA instrument inventory and address toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package visa

import (
	"errors"
	"testing"
)

func TestParseGPIBRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		addr string
	}{
		{"primary", "GPIB::5"},
		{"board_primary", "GPIB0::22"},
		{"primary_instr", "GPIB0::22::INSTR"},
		{"secondary", "GPIB1::9::14"},
		{"secondary_instr", "GPIB1::9::14::INSTR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, err := ParseGPIB(tc.addr)
			if err != nil {
				t.Fatalf("ParseGPIB(%q) failed: %v", tc.addr, err)
			}
			if got := a.String(); got != tc.addr {
				t.Errorf("round trip mismatch: got %q want %q", got, tc.addr)
			}
		})
	}
}

func TestParseGPIBRange(t *testing.T) {
	_, err := ParseGPIB("GPIB0::45::INSTR")
	var rangeErr *RangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("expected RangeError for primary address 45, got %v", err)
	}
	if rangeErr.Value != 45 || rangeErr.Max != 30 {
		t.Errorf("unexpected RangeError fields: %+v", rangeErr)
	}

	_, err = ParseGPIB("GPIB0::5::99")
	if !errors.As(err, &rangeErr) {
		t.Fatalf("expected RangeError for secondary address 99, got %v", err)
	}
}

func TestParseGPIBIncomplete(t *testing.T) {
	for _, addr := range []string{"GP", "GPIB", "GPIB0"} {
		_, err := ParseGPIB(addr)
		var incErr *IncompleteError
		if !errors.As(err, &incErr) {
			t.Errorf("ParseGPIB(%q): expected IncompleteError, got %v", addr, err)
		}
	}
}
