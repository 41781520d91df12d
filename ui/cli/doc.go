// Copyright (c) 2026 Visamaster Team
// Visamaster - VISA instrument inventory and address toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// Package cli implements the Visamaster command-line interface. It defines
// the root cobra command, the inventory subcommands (add, list, rm, toggle,
// tag, label), the address tooling (parse, probe) and the backup/restore and
// maintenance commands. Running the root command without a subcommand
// launches the interactive TUI.
package cli
