// Copyright (c) 2026 Visamaster Team
// Visamaster - VISA instrument inventory and address toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package logging

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func TestDebugfRespectsToggle(t *testing.T) {
	orig := log.Writer()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(orig)

	SetDebug(false)
	Debugf("hidden %d", 1)
	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("Debugf emitted output while debug was disabled")
	}

	SetDebug(true)
	defer SetDebug(false)
	Debugf("visible %d", 2)
	if !strings.Contains(buf.String(), "visible 2") {
		t.Errorf("Debugf did not emit output while debug was enabled")
	}
}
