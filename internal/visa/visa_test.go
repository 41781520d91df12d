// Copyright (c) 2026 Visamaster Team
// Visamaster - VISA instrument inventory and address toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package visa

import (
	"errors"
	"testing"
)

// TestParseDispatch checks that Parse routes addresses to the right parser
// and that every parsed address satisfies the round-trip law.
func TestParseDispatch(t *testing.T) {
	cases := []struct {
		addr string
		kind Kind
	}{
		{"USB::0x1A34::0x5678::A22-5", KindUSB},
		{"TCPIP0::10.0.0.5::inst0::INSTR", KindTCPIP},
		{"TCPIP::10.0.0.5::5025::SOCKET", KindTCPIP},
		{"GPIB0::22::INSTR", KindGPIB},
		{"ASRL1::INSTR", KindASRL},
		{"VXI0::24::INSTR", KindVXI},
	}
	for _, tc := range cases {
		t.Run(tc.addr, func(t *testing.T) {
			a, err := Parse(tc.addr)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tc.addr, err)
			}
			if a.Kind() != tc.kind {
				t.Errorf("Parse(%q).Kind() = %v, want %v", tc.addr, a.Kind(), tc.kind)
			}
			if got := a.String(); got != tc.addr {
				t.Errorf("round trip mismatch: got %q want %q", got, tc.addr)
			}
			again, err := Parse(a.String())
			if err != nil {
				t.Fatalf("re-parse of canonical form %q failed: %v", a.String(), err)
			}
			if again != a {
				t.Errorf("re-parse yielded a different value: %+v vs %+v", again, a)
			}
		})
	}
}

func TestParseUnknownInterface(t *testing.T) {
	_, err := Parse("PXI0::4::INSTR")
	var unkErr *UnknownInterfaceError
	if !errors.As(err, &unkErr) {
		t.Fatalf("expected UnknownInterfaceError, got %v", err)
	}
}

func TestMustParsePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("MustParse did not panic on an invalid address")
		}
	}()
	MustParse("USB::notanaddress")
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindUSB:     "USB",
		KindTCPIP:   "TCPIP",
		KindGPIB:    "GPIB",
		KindASRL:    "ASRL",
		KindVXI:     "VXI",
		KindUnknown: "UNKNOWN",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(k), got, want)
		}
	}
}
