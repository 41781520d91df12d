// Copyright (c) 2026 Visamaster Team
// Visamaster - VISA instrument inventory and address toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// Bun-backed implementation of the Store interface. The three dialect store
// types share this implementation; only bun.DB construction differs.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/instrhub/visamaster/internal/model"
	"github.com/uptrace/bun"
)

// InstrumentModel maps the `instruments` table for Bun queries.
type InstrumentModel struct {
	bun.BaseModel `bun:"table:instruments"`
	ID            int       `bun:"id,pk,autoincrement"`
	Name          string    `bun:"name"`
	Address       string    `bun:"address"`
	Kind          string    `bun:"kind"`
	Tags          string    `bun:"tags"`
	IsActive      bool      `bun:"is_active"`
	IDN           string    `bun:"idn"`
	LastSeen      time.Time `bun:"last_seen,nullzero"`
}

// AuditLogModel maps the `audit_log` table for Bun queries.
type AuditLogModel struct {
	bun.BaseModel `bun:"table:audit_log"`
	ID            int    `bun:"id,pk,autoincrement"`
	Timestamp     string `bun:"timestamp"`
	Action        string `bun:"action"`
	Details       string `bun:"details"`
}

func instrumentModelToModel(m InstrumentModel) model.Instrument {
	return model.Instrument{
		ID:       m.ID,
		Name:     m.Name,
		Address:  m.Address,
		Kind:     m.Kind,
		Tags:     m.Tags,
		IsActive: m.IsActive,
		IDN:      m.IDN,
		LastSeen: m.LastSeen,
	}
}

func auditModelToModel(m AuditLogModel) model.AuditLogEntry {
	return model.AuditLogEntry{ID: m.ID, Timestamp: m.Timestamp, Action: m.Action, Details: m.Details}
}

// bunStore implements Store on top of a *bun.DB.
type bunStore struct {
	bun *bun.DB
}

// GetAllInstruments retrieves all instruments, ordered by ID.
func (s *bunStore) GetAllInstruments() ([]model.Instrument, error) {
	ctx := context.Background()
	var rows []InstrumentModel
	if err := s.bun.NewSelect().Model(&rows).Order("id ASC").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.Instrument, 0, len(rows))
	for _, r := range rows {
		out = append(out, instrumentModelToModel(r))
	}
	return out, nil
}

// GetActiveInstruments retrieves all active instruments, ordered by ID.
func (s *bunStore) GetActiveInstruments() ([]model.Instrument, error) {
	ctx := context.Background()
	var rows []InstrumentModel
	if err := s.bun.NewSelect().Model(&rows).Where("is_active = ?", true).Order("id ASC").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.Instrument, 0, len(rows))
	for _, r := range rows {
		out = append(out, instrumentModelToModel(r))
	}
	return out, nil
}

// GetInstrument retrieves a single instrument by ID.
func (s *bunStore) GetInstrument(id int) (*model.Instrument, error) {
	ctx := context.Background()
	var row InstrumentModel
	err := s.bun.NewSelect().Model(&row).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	m := instrumentModelToModel(row)
	return &m, nil
}

// GetInstrumentByAddress retrieves a single instrument by canonical address.
func (s *bunStore) GetInstrumentByAddress(address string) (*model.Instrument, error) {
	ctx := context.Background()
	var row InstrumentModel
	err := s.bun.NewSelect().Model(&row).Where("address = ?", address).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	m := instrumentModelToModel(row)
	return &m, nil
}

// AddInstrument inserts a new instrument and returns its ID. Bun fills the
// autoincrement ID on the model after the insert on all three dialects.
func (s *bunStore) AddInstrument(name, address, kind, tags string) (int, error) {
	ctx := context.Background()
	row := &InstrumentModel{
		Name:     name,
		Address:  address,
		Kind:     kind,
		Tags:     tags,
		IsActive: true,
	}
	if _, err := s.bun.NewInsert().Model(row).Exec(ctx); err != nil {
		return 0, MapDBError(err)
	}
	_ = s.LogAction("ADD_INSTRUMENT", fmt.Sprintf("instrument: %s (%s)", name, address))
	return row.ID, nil
}

// DeleteInstrument removes an instrument by ID.
func (s *bunStore) DeleteInstrument(id int) error {
	ctx := context.Background()
	// Fetch details before deleting for the audit trail.
	details := fmt.Sprintf("id: %d", id)
	if inst, err := s.GetInstrument(id); err == nil {
		details = fmt.Sprintf("instrument: %s", inst.String())
	}
	res, err := s.bun.NewDelete().Model((*InstrumentModel)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	_ = s.LogAction("DELETE_INSTRUMENT", details)
	return nil
}

// ToggleInstrumentStatus flips the active status of an instrument.
func (s *bunStore) ToggleInstrumentStatus(id int) error {
	ctx := context.Background()
	inst, err := s.GetInstrument(id)
	if err != nil {
		return err // If we can't find it, we can't toggle it.
	}
	if _, err := ExecRaw(ctx, s.bun, "UPDATE instruments SET is_active = NOT is_active WHERE id = ?", id); err != nil {
		return err
	}
	_ = s.LogAction("TOGGLE_INSTRUMENT_STATUS", fmt.Sprintf("instrument: %s, new_status: %t", inst.String(), !inst.IsActive))
	return nil
}

// UpdateInstrumentName updates the label for a given instrument.
func (s *bunStore) UpdateInstrumentName(id int, name string) error {
	ctx := context.Background()
	if _, err := ExecRaw(ctx, s.bun, "UPDATE instruments SET name = ? WHERE id = ?", name, id); err != nil {
		return err
	}
	_ = s.LogAction("UPDATE_INSTRUMENT_NAME", fmt.Sprintf("instrument_id: %d, new_name: '%s'", id, name))
	return nil
}

// UpdateInstrumentTags updates the tags for a given instrument.
func (s *bunStore) UpdateInstrumentTags(id int, tags string) error {
	ctx := context.Background()
	if _, err := ExecRaw(ctx, s.bun, "UPDATE instruments SET tags = ? WHERE id = ?", tags, id); err != nil {
		return err
	}
	_ = s.LogAction("UPDATE_INSTRUMENT_TAGS", fmt.Sprintf("instrument_id: %d, new_tags: '%s'", id, tags))
	return nil
}

// UpdateInstrument rewrites the name, address, kind and tags of an existing
// instrument in one statement. The address must already be canonical; a
// collision with another row's address surfaces as ErrDuplicate.
func (s *bunStore) UpdateInstrument(id int, name, address, kind, tags string) error {
	ctx := context.Background()
	if _, err := s.GetInstrument(id); err != nil {
		return err
	}
	if _, err := ExecRaw(ctx, s.bun, "UPDATE instruments SET name = ?, address = ?, kind = ?, tags = ? WHERE id = ?", name, address, kind, tags, id); err != nil {
		return MapDBError(err)
	}
	_ = s.LogAction("UPDATE_INSTRUMENT", fmt.Sprintf("instrument_id: %d, name: '%s', address: %s", id, name, address))
	return nil
}

// UpdateInstrumentIdentity stores the latest *IDN? reply and probe time.
// Called after a successful probe, which is logged at a higher level.
func (s *bunStore) UpdateInstrumentIdentity(id int, idn string, seen time.Time) error {
	ctx := context.Background()
	_, err := ExecRaw(ctx, s.bun, "UPDATE instruments SET idn = ?, last_seen = ? WHERE id = ?", idn, seen, id)
	return err
}

// GetAllAuditLogEntries retrieves all audit entries, most recent first.
func (s *bunStore) GetAllAuditLogEntries() ([]model.AuditLogEntry, error) {
	ctx := context.Background()
	var rows []AuditLogModel
	if err := s.bun.NewSelect().Model(&rows).Order("id DESC").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.AuditLogEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, auditModelToModel(r))
	}
	return out, nil
}

// LogAction records an audit trail event.
func (s *bunStore) LogAction(action string, details string) error {
	ctx := context.Background()
	row := &AuditLogModel{
		Timestamp: time.Now().Format(time.RFC3339),
		Action:    action,
		Details:   details,
	}
	_, err := s.bun.NewInsert().Model(row).Exec(ctx)
	return err
}

// ExportDataForBackup retrieves all data from the database for a backup.
func (s *bunStore) ExportDataForBackup() (*model.BackupData, error) {
	instruments, err := s.GetAllInstruments()
	if err != nil {
		return nil, err
	}
	audit, err := s.GetAllAuditLogEntries()
	if err != nil {
		return nil, err
	}
	return &model.BackupData{Instruments: instruments, AuditLog: audit}, nil
}

// ImportDataFromBackup replaces the inventory with the backup contents.
func (s *bunStore) ImportDataFromBackup(backup *model.BackupData) error {
	ctx := context.Background()
	tx, err := s.bun.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// Raw DELETEs because Bun requires a WHERE clause on Delete queries to
	// prevent accidental full-table deletes.
	if _, err := ExecRaw(ctx, tx, "DELETE FROM instruments"); err != nil {
		return fmt.Errorf("failed to clear instruments: %w", err)
	}
	if _, err := ExecRaw(ctx, tx, "DELETE FROM audit_log"); err != nil {
		return fmt.Errorf("failed to clear audit log: %w", err)
	}
	for _, inst := range backup.Instruments {
		row := &InstrumentModel{
			Name:     inst.Name,
			Address:  inst.Address,
			Kind:     inst.Kind,
			Tags:     inst.Tags,
			IsActive: inst.IsActive,
			IDN:      inst.IDN,
			LastSeen: inst.LastSeen,
		}
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			return fmt.Errorf("failed to restore instrument %s: %w", inst.Address, err)
		}
	}
	// Exports list entries most recent first; insert oldest first so the
	// autoincrement IDs keep the original chronology.
	for i := len(backup.AuditLog) - 1; i >= 0; i-- {
		entry := backup.AuditLog[i]
		row := &AuditLogModel{
			Timestamp: entry.Timestamp,
			Action:    entry.Action,
			Details:   entry.Details,
		}
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			return fmt.Errorf("failed to restore audit entry %q: %w", entry.Action, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	_ = s.LogAction("IMPORT_BACKUP", fmt.Sprintf("restored %d instruments, %d audit entries", len(backup.Instruments), len(backup.AuditLog)))
	return nil
}

// IntegrateDataFromBackup merges a backup into the inventory, skipping
// addresses that already exist.
func (s *bunStore) IntegrateDataFromBackup(backup *model.BackupData) error {
	added := 0
	for _, inst := range backup.Instruments {
		if _, err := s.GetInstrumentByAddress(inst.Address); err == nil {
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		if _, err := s.AddInstrument(inst.Name, inst.Address, inst.Kind, inst.Tags); err != nil {
			return err
		}
		added++
	}
	_ = s.LogAction("INTEGRATE_BACKUP", fmt.Sprintf("merged %d of %d instruments", added, len(backup.Instruments)))
	return nil
}
