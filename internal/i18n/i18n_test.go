// Copyright (c) 2026 Visamaster Team
// Visamaster - VISA instrument inventory and address toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package i18n

import "testing"

func TestInitAndAvailableLocales(t *testing.T) {
	Init("en")
	if GetLang() != "en" {
		t.Fatalf("expected lang 'en', got %q", GetLang())
	}

	av := GetAvailableLocales()
	for _, k := range []string{"en", "de"} {
		if _, ok := av[k]; !ok {
			t.Fatalf("expected available locale %q to be present", k)
		}
	}
	if av["de"] != "Deutsch" {
		t.Fatalf("unexpected display name for de: %q", av["de"])
	}
}

func TestT_BasicAndFormatting(t *testing.T) {
	Init("en")

	if got := T("instruments.title"); got != "Instruments" {
		t.Fatalf("unexpected translation: %q", got)
	}

	// fmt-style formatting via template args
	got := T("cli.error_init_db", "boom")
	if got != "Error initializing database: boom" {
		t.Fatalf("unexpected formatted translation: %q", got)
	}

	// unknown IDs fall back to the ID itself
	if got := T("no.such.id"); got != "no.such.id" {
		t.Fatalf("expected fallback to message ID, got %q", got)
	}

	// switch language to German
	SetLang("de")
	if GetLang() != "de" {
		t.Fatalf("expected lang 'de', got %q", GetLang())
	}
	if got := T("instruments.title"); got != "Geräte" {
		t.Fatalf("expected German translation, got %q", got)
	}

	SetLang("en")
}
