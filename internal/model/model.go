// Copyright (c) 2026 Visamaster Team
// Visamaster - VISA instrument inventory and address toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// package model defines the core data structures for the instrument inventory.
package model // import "github.com/instrhub/visamaster/internal/model"

import (
	"fmt"
	"time"
)

// Instrument represents a bench instrument registered in the inventory,
// identified by its canonical VISA resource address.
type Instrument struct {
	ID       int
	Name     string // Human-readable label (e.g. "scope-01").
	Address  string // Canonical VISA resource string.
	Kind     string // Interface class prefix derived from the address (USB, TCPIP, ...).
	Tags     string // Comma-separated tags for grouping (e.g. "bench-3,calibrated").
	IsActive bool
	IDN      string    // Last *IDN? reply, empty if the instrument was never probed.
	LastSeen time.Time // Zero until the first successful probe.
}

// String returns the name (address) representation, or just the address when
// the instrument has no name.
func (i Instrument) String() string {
	if i.Name == "" {
		return i.Address
	}
	return fmt.Sprintf("%s (%s)", i.Name, i.Address)
}

// Identity holds the four fields of a SCPI *IDN? reply.
type Identity struct {
	Manufacturer string
	Model        string
	Serial       string
	Firmware     string
}

// String renders the identity in the comma-separated wire form.
func (id Identity) String() string {
	return fmt.Sprintf("%s,%s,%s,%s", id.Manufacturer, id.Model, id.Serial, id.Firmware)
}

// AuditLogEntry represents a single entry in the inventory audit trail.
type AuditLogEntry struct {
	ID        int
	Timestamp string
	Action    string
	Details   string
}

// BackupData is the serialization container for inventory export and import.
type BackupData struct {
	Instruments []Instrument    `json:"instruments"`
	AuditLog    []AuditLogEntry `json:"audit_log,omitempty"`
}
