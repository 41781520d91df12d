// Copyright (c) 2026 Visamaster Team
// Visamaster - VISA instrument inventory and address toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/instrhub/visamaster/internal/db"
	"github.com/instrhub/visamaster/internal/i18n"
)

// setupTestDB initializes an in-memory SQLite database for isolated testing
// and ensures the i18n system is ready.
func setupTestDB(t *testing.T) {
	t.Helper()

	// Keep the first-run config write-back out of the real user config dir.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	// Use a unique in-memory SQLite database per test. The file: URI with
	// mode=memory and cache=shared lets multiple connections see the same
	// in-memory DB.
	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())

	i18n.Init("en")
	if err := db.InitDB("sqlite", dsn); err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}
}

// captureStdout runs fn while collecting everything written to os.Stdout.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	_ = w.Close()
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

func TestNewRootCmdHasSubcommands(t *testing.T) {
	root := NewRootCmd()
	want := []string{
		"parse", "add", "list", "rm", "toggle", "tag", "label",
		"probe", "audit-log", "db-maintain", "backup", "restore",
		"migrate", "version",
	}
	have := map[string]bool{}
	for _, c := range root.Commands() {
		have[c.Name()] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("root command is missing subcommand %q", name)
		}
	}
}

func TestParseCommand(t *testing.T) {
	setupTestDB(t)

	root := NewRootCmd()
	root.SetArgs([]string{"parse", "USB::0x1A34::0x5678::A22-5"})
	out := captureStdout(t, func() {
		if err := root.Execute(); err != nil {
			t.Errorf("parse command failed: %v", err)
		}
	})
	if !strings.Contains(out, "USB::0x1A34::0x5678::A22-5") {
		t.Errorf("expected canonical address in output, got %q", out)
	}
	if !strings.Contains(out, "serial number") {
		t.Errorf("expected field breakdown in output, got %q", out)
	}
}

func TestAddCommandRegistersInstrument(t *testing.T) {
	setupTestDB(t)

	root := NewRootCmd()
	root.SetArgs([]string{"add", "TCPIP::psu-01.lab::INSTR", "--name", "Bench PSU", "--tags", "bench:3"})
	_ = captureStdout(t, func() {
		if err := root.Execute(); err != nil {
			t.Fatalf("add command failed: %v", err)
		}
	})

	inst, err := db.GetInstrumentByAddress("TCPIP::psu-01.lab::INSTR")
	if err != nil {
		t.Fatalf("instrument was not stored: %v", err)
	}
	if inst.Name != "Bench PSU" || inst.Tags != "bench:3" {
		t.Errorf("unexpected stored instrument: %+v", inst)
	}
	if inst.Kind != "TCPIP" {
		t.Errorf("unexpected stored kind: %q", inst.Kind)
	}
}

func TestFindInstrument(t *testing.T) {
	setupTestDB(t)

	id, err := db.AddInstrument("Scope", "GPIB0::22::INSTR", "GPIB", "")
	if err != nil {
		t.Fatalf("AddInstrument failed: %v", err)
	}

	byID, err := findInstrument(fmt.Sprintf("%d", id))
	if err != nil || byID.Name != "Scope" {
		t.Errorf("lookup by ID failed: %v %+v", err, byID)
	}

	// Address lookup canonicalizes before comparing.
	byAddr, err := findInstrument("GPIB0::22::INSTR")
	if err != nil || byAddr.ID != id {
		t.Errorf("lookup by address failed: %v %+v", err, byAddr)
	}

	byName, err := findInstrument("scope")
	if err != nil || byName.ID != id {
		t.Errorf("case-insensitive name lookup failed: %v %+v", err, byName)
	}

	if _, err := findInstrument("no-such-thing"); err == nil {
		t.Errorf("expected an error for an unknown identifier")
	}
}

func TestAppendDSNPassword(t *testing.T) {
	got := appendDSNPassword("postgres", "host=db user=visamaster", "s3cret")
	if got != "host=db user=visamaster password=s3cret" {
		t.Errorf("unexpected postgres DSN: %q", got)
	}
	// Existing password wins.
	got = appendDSNPassword("postgres", "host=db password=old", "new")
	if got != "host=db password=old" {
		t.Errorf("postgres DSN with password should be unchanged: %q", got)
	}

	got = appendDSNPassword("mysql", "visamaster@tcp(db:3306)/inventory", "s3cret")
	if got != "visamaster:s3cret@tcp(db:3306)/inventory" {
		t.Errorf("unexpected mysql DSN: %q", got)
	}

	// SQLite DSNs carry no credentials.
	got = appendDSNPassword("sqlite", "./visamaster.db", "s3cret")
	if got != "./visamaster.db" {
		t.Errorf("sqlite DSN should be unchanged: %q", got)
	}
}
