// Copyright (c) 2026 Visamaster Team
// Visamaster - VISA instrument inventory and address toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import "testing"

func TestInstrumentString(t *testing.T) {
	i := Instrument{Address: "GPIB0::22::INSTR"}
	if got := i.String(); got != "GPIB0::22::INSTR" {
		t.Errorf("unexpected Instrument.String(): %q", got)
	}

	i.Name = "dmm-01"
	if got := i.String(); got != "dmm-01 (GPIB0::22::INSTR)" {
		t.Errorf("unexpected Instrument.String() with name: %q", got)
	}
}

func TestIdentityString(t *testing.T) {
	id := Identity{Manufacturer: "Keysight Technologies", Model: "34465A", Serial: "MY57501234", Firmware: "A.02.17"}
	want := "Keysight Technologies,34465A,MY57501234,A.02.17"
	if got := id.String(); got != want {
		t.Errorf("unexpected Identity.String(): got %q want %q", got, want)
	}
}
