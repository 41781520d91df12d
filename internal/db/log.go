// Copyright (c) 2026 Visamaster Team
// Visamaster - VISA instrument inventory and address toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import "github.com/instrhub/visamaster/internal/logging"

// SetDebug enables or disables DB debug logging. It forwards to the shared
// logging package so one switch controls all debug output.
func SetDebug(enabled bool) {
	logging.SetDebug(enabled)
}

func dbLogf(format string, v ...any) {
	logging.Debugf(format, v...)
}
