// Copyright (c) 2026 Visamaster Team
// Visamaster - VISA instrument inventory and address toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"time"

	"github.com/instrhub/visamaster/internal/model"
)

// Store defines the interface for all database operations in Visamaster.
// This allows for multiple database backends to be implemented.
type Store interface {
	// Instrument methods
	GetAllInstruments() ([]model.Instrument, error)
	GetActiveInstruments() ([]model.Instrument, error)
	GetInstrument(id int) (*model.Instrument, error)
	GetInstrumentByAddress(address string) (*model.Instrument, error)
	AddInstrument(name, address, kind, tags string) (int, error)
	DeleteInstrument(id int) error
	ToggleInstrumentStatus(id int) error
	UpdateInstrumentName(id int, name string) error
	UpdateInstrumentTags(id int, tags string) error
	UpdateInstrument(id int, name, address, kind, tags string) error
	UpdateInstrumentIdentity(id int, idn string, seen time.Time) error

	// Audit Log methods
	GetAllAuditLogEntries() ([]model.AuditLogEntry, error)
	LogAction(action string, details string) error

	// Backup methods
	ExportDataForBackup() (*model.BackupData, error)
	ImportDataFromBackup(backup *model.BackupData) error
	IntegrateDataFromBackup(backup *model.BackupData) error
}
