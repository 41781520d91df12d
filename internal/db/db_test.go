// Copyright (c) 2026 Visamaster Team
// Visamaster - VISA instrument inventory and address toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/uptrace/bun"
	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) string {
	t.Helper()
	dsn := "file:test_" + t.Name() + "?mode=memory&cache=shared"
	if err := InitDB("sqlite", dsn); err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	return dsn
}

func TestInitDB_Migrations_Applied(t *testing.T) {
	dsn := newTestDB(t)

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open sql.DB for inspection: %v", err)
	}
	defer func() { _ = sqlDB.Close() }()

	for _, table := range []string{"schema_migrations", "instruments", "audit_log"} {
		var name string
		err := sqlDB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?", table).Scan(&name)
		if err != nil {
			t.Errorf("expected table %s to exist after migrations: %v", table, err)
		}
	}
}

func TestAddAndGetInstrument(t *testing.T) {
	_ = newTestDB(t)

	id, err := AddInstrument("dmm-01", "GPIB0::22::INSTR", "GPIB", "bench-3")
	if err != nil {
		t.Fatalf("AddInstrument failed: %v", err)
	}
	if id == 0 {
		t.Fatalf("expected a non-zero instrument ID")
	}

	inst, err := GetInstrument(id)
	if err != nil {
		t.Fatalf("GetInstrument failed: %v", err)
	}
	if inst.Name != "dmm-01" || inst.Address != "GPIB0::22::INSTR" || inst.Kind != "GPIB" {
		t.Errorf("unexpected instrument: %+v", inst)
	}
	if !inst.IsActive {
		t.Errorf("new instruments should be active")
	}

	byAddr, err := GetInstrumentByAddress("GPIB0::22::INSTR")
	if err != nil {
		t.Fatalf("GetInstrumentByAddress failed: %v", err)
	}
	if byAddr.ID != id {
		t.Errorf("lookup by address returned the wrong row: %+v", byAddr)
	}
}

func TestAddInstrument_DuplicateAddress(t *testing.T) {
	_ = newTestDB(t)

	if _, err := AddInstrument("a", "USB::0x1234::0x5678::SN-1::INSTR", "USB", ""); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	_, err := AddInstrument("b", "USB::0x1234::0x5678::SN-1::INSTR", "USB", "")
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate for a duplicate address, got %v", err)
	}
}

func TestToggleAndDeleteInstrument(t *testing.T) {
	_ = newTestDB(t)

	id, err := AddInstrument("scope", "TCPIP::10.0.0.5::inst0::INSTR", "TCPIP", "")
	if err != nil {
		t.Fatalf("AddInstrument failed: %v", err)
	}

	if err := ToggleInstrumentStatus(id); err != nil {
		t.Fatalf("ToggleInstrumentStatus failed: %v", err)
	}
	inst, err := GetInstrument(id)
	if err != nil {
		t.Fatalf("GetInstrument failed: %v", err)
	}
	if inst.IsActive {
		t.Errorf("expected instrument to be inactive after toggle")
	}

	active, err := GetActiveInstruments()
	if err != nil {
		t.Fatalf("GetActiveInstruments failed: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("expected no active instruments, got %d", len(active))
	}

	if err := DeleteInstrument(id); err != nil {
		t.Fatalf("DeleteInstrument failed: %v", err)
	}
	if _, err := GetInstrument(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := DeleteInstrument(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting a missing row, got %v", err)
	}
}

func TestUpdateInstrumentFields(t *testing.T) {
	_ = newTestDB(t)

	id, err := AddInstrument("psu", "ASRL1::INSTR", "ASRL", "")
	if err != nil {
		t.Fatalf("AddInstrument failed: %v", err)
	}

	if err := UpdateInstrumentName(id, "psu-lab2"); err != nil {
		t.Fatalf("UpdateInstrumentName failed: %v", err)
	}
	if err := UpdateInstrumentTags(id, "bench-2,calibrated"); err != nil {
		t.Fatalf("UpdateInstrumentTags failed: %v", err)
	}
	seen := time.Now().UTC().Truncate(time.Second)
	if err := UpdateInstrumentIdentity(id, "ACME,PSU-300,SN42,1.0", seen); err != nil {
		t.Fatalf("UpdateInstrumentIdentity failed: %v", err)
	}

	inst, err := GetInstrument(id)
	if err != nil {
		t.Fatalf("GetInstrument failed: %v", err)
	}
	if inst.Name != "psu-lab2" || inst.Tags != "bench-2,calibrated" {
		t.Errorf("updates not applied: %+v", inst)
	}
	if inst.IDN != "ACME,PSU-300,SN42,1.0" {
		t.Errorf("IDN not stored: %q", inst.IDN)
	}
	if inst.LastSeen.IsZero() {
		t.Errorf("LastSeen not stored")
	}
}

func TestUpdateInstrumentRewritesRow(t *testing.T) {
	_ = newTestDB(t)

	id, err := AddInstrument("scope", "GPIB0::5::INSTR", "GPIB", "")
	if err != nil {
		t.Fatalf("AddInstrument failed: %v", err)
	}
	other, err := AddInstrument("dmm", "GPIB0::6::INSTR", "GPIB", "")
	if err != nil {
		t.Fatalf("AddInstrument failed: %v", err)
	}

	if err := UpdateInstrument(id, "scope-2", "TCPIP::10.0.0.9::INSTR", "TCPIP", "bench-1"); err != nil {
		t.Fatalf("UpdateInstrument failed: %v", err)
	}
	inst, err := GetInstrument(id)
	if err != nil {
		t.Fatalf("GetInstrument failed: %v", err)
	}
	if inst.Name != "scope-2" || inst.Address != "TCPIP::10.0.0.9::INSTR" || inst.Kind != "TCPIP" || inst.Tags != "bench-1" {
		t.Errorf("update not applied: %+v", inst)
	}

	// Rewriting onto another row's address must surface ErrDuplicate.
	if err := UpdateInstrument(other, "dmm", "TCPIP::10.0.0.9::INSTR", "TCPIP", ""); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate for a colliding address, got %v", err)
	}
	if err := UpdateInstrument(9999, "ghost", "GPIB0::7::INSTR", "GPIB", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for a missing row, got %v", err)
	}
}

func TestAuditLogRecordsActions(t *testing.T) {
	_ = newTestDB(t)

	id, err := AddInstrument("gen", "VXI0::24::INSTR", "VXI", "")
	if err != nil {
		t.Fatalf("AddInstrument failed: %v", err)
	}
	if err := DeleteInstrument(id); err != nil {
		t.Fatalf("DeleteInstrument failed: %v", err)
	}

	entries, err := GetAllAuditLogEntries()
	if err != nil {
		t.Fatalf("GetAllAuditLogEntries failed: %v", err)
	}
	if len(entries) < 2 {
		t.Fatalf("expected at least 2 audit entries, got %d", len(entries))
	}
	// Most recent first.
	if entries[0].Action != "DELETE_INSTRUMENT" {
		t.Errorf("expected DELETE_INSTRUMENT first, got %q", entries[0].Action)
	}
}

func TestBackupExportImportRoundTrip(t *testing.T) {
	_ = newTestDB(t)

	if _, err := AddInstrument("one", "GPIB0::1::INSTR", "GPIB", "a"); err != nil {
		t.Fatalf("AddInstrument failed: %v", err)
	}
	if _, err := AddInstrument("two", "GPIB0::2::INSTR", "GPIB", "b"); err != nil {
		t.Fatalf("AddInstrument failed: %v", err)
	}

	backup, err := ExportDataForBackup()
	if err != nil {
		t.Fatalf("ExportDataForBackup failed: %v", err)
	}
	if len(backup.Instruments) != 2 {
		t.Fatalf("expected 2 instruments in backup, got %d", len(backup.Instruments))
	}

	if err := ImportDataFromBackup(backup); err != nil {
		t.Fatalf("ImportDataFromBackup failed: %v", err)
	}
	all, err := GetAllInstruments()
	if err != nil {
		t.Fatalf("GetAllInstruments failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 instruments after restore, got %d", len(all))
	}
}

func TestImportBackupReplacesAuditLog(t *testing.T) {
	_ = newTestDB(t)

	if _, err := AddInstrument("one", "GPIB0::1::INSTR", "GPIB", ""); err != nil {
		t.Fatalf("AddInstrument failed: %v", err)
	}
	backup, err := ExportDataForBackup()
	if err != nil {
		t.Fatalf("ExportDataForBackup failed: %v", err)
	}
	if len(backup.AuditLog) == 0 {
		t.Fatalf("expected audit entries in the backup")
	}

	// Entries recorded after the export must not survive a full restore.
	if err := LogAction("STALE_ACTION", "recorded after export"); err != nil {
		t.Fatalf("LogAction failed: %v", err)
	}

	if err := ImportDataFromBackup(backup); err != nil {
		t.Fatalf("ImportDataFromBackup failed: %v", err)
	}
	entries, err := GetAllAuditLogEntries()
	if err != nil {
		t.Fatalf("GetAllAuditLogEntries failed: %v", err)
	}
	var restored, marker bool
	for _, e := range entries {
		switch e.Action {
		case "STALE_ACTION":
			t.Errorf("audit entry from before the restore survived: %+v", e)
		case "ADD_INSTRUMENT":
			restored = true
		case "IMPORT_BACKUP":
			marker = true
		}
	}
	if !restored {
		t.Errorf("audit entries from the backup were not restored")
	}
	if !marker {
		t.Errorf("expected an IMPORT_BACKUP entry after the restore")
	}
}

func TestIntegrateBackupSkipsExisting(t *testing.T) {
	_ = newTestDB(t)

	if _, err := AddInstrument("one", "GPIB0::1::INSTR", "GPIB", ""); err != nil {
		t.Fatalf("AddInstrument failed: %v", err)
	}

	backup, err := ExportDataForBackup()
	if err != nil {
		t.Fatalf("ExportDataForBackup failed: %v", err)
	}
	backup.Instruments = append(backup.Instruments, backup.Instruments[0])
	backup.Instruments[1].Address = "GPIB0::3::INSTR"
	backup.Instruments[1].Name = "three"

	if err := IntegrateDataFromBackup(backup); err != nil {
		t.Fatalf("IntegrateDataFromBackup failed: %v", err)
	}
	all, err := GetAllInstruments()
	if err != nil {
		t.Fatalf("GetAllInstruments failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 instruments after integrate, got %d", len(all))
	}
}

func TestSetDebugControlsDBLogging(t *testing.T) {
	orig := log.Writer()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(orig)

	SetDebug(false)
	dbLogf("hidden trace")
	if buf.Len() != 0 {
		t.Errorf("expected no output while debug is disabled, got %q", buf.String())
	}

	SetDebug(true)
	defer SetDebug(false)
	dbLogf("maintenance trace %d", 7)
	if !strings.Contains(buf.String(), "maintenance trace 7") {
		t.Errorf("expected dbLogf output while debug is enabled")
	}
}

// queryRecorder captures every statement Bun executes so tests can assert on
// what maintenance actually ran.
type queryRecorder struct {
	queries []string
}

func (r *queryRecorder) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (r *queryRecorder) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	r.queries = append(r.queries, event.Query)
}

func (r *queryRecorder) ran(fragment string) bool {
	for _, q := range r.queries {
		if strings.Contains(q, fragment) {
			return true
		}
	}
	return false
}

func TestSQLiteMaintenanceSkipIntegrity(t *testing.T) {
	for _, skip := range []bool{false, true} {
		sqlDB, err := sql.Open("sqlite", ":memory:")
		if err != nil {
			t.Fatalf("failed to open sqlite: %v", err)
		}
		bunDB := createBunDB(sqlDB, "sqlite")
		rec := &queryRecorder{}
		bunDB.AddQueryHook(rec)

		if err := runSQLiteMaintenance(context.Background(), bunDB, MaintenanceOptions{SkipIntegrity: skip}); err != nil {
			t.Fatalf("maintenance failed (skip=%t): %v", skip, err)
		}
		if !rec.ran("VACUUM") {
			t.Errorf("expected VACUUM to run (skip=%t)", skip)
		}
		if got := rec.ran("integrity_check"); got == skip {
			t.Errorf("integrity_check ran=%t, want %t", got, !skip)
		}
		_ = bunDB.Close()
	}
}
