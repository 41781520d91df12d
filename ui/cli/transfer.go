// Copyright (c) 2026 Visamaster Team
// Visamaster - VISA instrument inventory and address toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// transfer.go implements the backup, restore and migrate commands. Backups
// are Zstandard-compressed JSON dumps of the whole inventory, usable for
// disaster recovery and for moving between database backends.

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	log "github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"

	"github.com/instrhub/visamaster/internal/db"
	"github.com/instrhub/visamaster/internal/i18n"
	"github.com/instrhub/visamaster/internal/model"
)

var fullRestore bool // Flag for the restore command

// backupCmd represents the 'backup' command.
// It dumps all data from the database into a single compressed JSON file.
var backupCmd = &cobra.Command{
	Use:     "backup [output-file]",
	Aliases: []string{"export"},
	Short:   "Create a compressed (zstd) JSON backup of the database",
	Long: `Dumps the entire contents of the Visamaster database (instruments and audit log)
into a single, Zstandard-compressed JSON file.
If an output file is specified, '.zst' will be appended to the name if it's not already present.
If no output file is specified, a default filename 'visamaster-backup-YYYY-MM-DD.json.zst' is used.

This file can be used for disaster recovery or for migrating to a different database backend.

Examples:
  # Backup to a default file (e.g., visamaster-backup-2026-08-24.json.zst)
  visamaster backup

  # Backup to a specific file
  visamaster backup my-backup.json`, // .zst will be appended
	Args:    cobra.MaximumNArgs(1),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		var outputFile string
		if len(args) == 0 {
			outputFile = fmt.Sprintf("visamaster-backup-%s.json.zst", time.Now().Format("2006-01-02"))
		} else {
			outputFile = args[0]
			if !strings.HasSuffix(outputFile, ".zst") {
				outputFile += ".zst"
			}
		}
		fmt.Println(i18n.T("backup.cli_starting"))
		data, err := db.ExportDataForBackup()
		if err != nil {
			log.Fatalf("%s", i18n.T("backup.cli_error_export", err))
		}
		if err := writeCompressedBackup(outputFile, data); err != nil {
			log.Fatalf("%s", i18n.T("backup.cli_error_write", err))
		}
		fmt.Println(i18n.T("backup.cli_success", outputFile))
	},
}

// restoreCmd represents the 'restore' command.
// It restores the database from a compressed JSON backup file.
var restoreCmd = &cobra.Command{
	Use:     "restore <backup-file.zst>",
	Aliases: []string{"import"},
	Short:   "Restore the database from a compressed JSON backup",
	Long: `Restores the Visamaster database from a Zstandard-compressed JSON backup file.
By default, this command performs a non-destructive "integration" restore, only adding
instruments whose addresses do not already exist.

To perform a full, destructive restore that WIPES all existing data before importing, use the --full flag.
WARNING: The --full flag is destructive and not reversible.

Example (Integrate):
  visamaster restore ./visamaster-backup-2026-08-24.json.zst

Example (Full Restore):
  visamaster restore --full ./visamaster-backup-2026-08-24.json.zst`,
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		inputFile := args[0]
		fmt.Println(i18n.T("restore.cli_starting", inputFile))
		backup, err := readCompressedBackup(inputFile)
		if err != nil {
			log.Fatalf("%s", i18n.T("restore.cli_error_read", err))
		}
		if fullRestore {
			answer := promptForConfirmation("This will WIPE all existing data. Continue? (yes/no): ")
			if answer != "yes" && answer != "y" {
				fmt.Println("Cancelled.")
				return
			}
			err = db.ImportDataFromBackup(backup)
		} else {
			err = db.IntegrateDataFromBackup(backup)
		}
		if err != nil {
			log.Fatalf("%s", i18n.T("restore.cli_error_import", err))
		}
		fmt.Println(i18n.T("restore.cli_success"))
	},
}

// migrateCmd represents the 'migrate' command.
var migrateCmd = &cobra.Command{
	Use:   "migrate --database.type <db-type> --database.dsn <target-dsn>",
	Short: "Migrate data from the current database to a new one",
	Long: `Performs a database migration by exporting all data from the current database
(configured in visamaster.yaml) and importing it into a new target database.

This command automates the following steps:
1. Exports data from the source database in-memory.
2. Connects to the target database specified by --database.type and --database.dsn.
3. Applies all necessary database schema migrations to the target.
4. Performs a full, destructive restore into the target database.

With --prompt-password the target DSN may omit the password; you will be
asked for it without it ending up in your shell history.

Example:
  visamaster migrate --database.type postgres --database.dsn "host=localhost user=visamaster dbname=visamaster"`,
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Both flags must be given explicitly; falling back to the
		// configured database would migrate the source into itself.
		if !cmd.Flags().Changed("database.type") || !cmd.Flags().Changed("database.dsn") {
			log.Fatalf("%s", i18n.T("migrate.cli_error_flags"))
		}
		targetType, _ := cmd.Flags().GetString("database.type")
		targetDsn, _ := cmd.Flags().GetString("database.dsn")
		if targetType == "" || targetDsn == "" {
			log.Fatalf("%s", i18n.T("migrate.cli_error_flags"))
		}

		if prompt, _ := cmd.Flags().GetBool("prompt-password"); prompt {
			password, err := promptForPassword("Target database password: ")
			if err != nil {
				log.Fatalf("could not read password: %v", err)
			}
			if password != "" {
				targetDsn = appendDSNPassword(targetType, targetDsn, password)
			}
		}

		fmt.Println(i18n.T("migrate.cli_starting_backup"))
		backup, err := db.ExportDataForBackup()
		if err != nil {
			log.Fatalf("%s", i18n.T("migrate.cli_error_backup", err))
		}

		target, err := db.NewStoreFromDSN(targetType, targetDsn)
		if err != nil {
			log.Fatalf("%s", i18n.T("cli.error_init_db", err))
		}
		if err := target.ImportDataFromBackup(backup); err != nil {
			log.Fatalf("%s", i18n.T("migrate.cli_error_backup", err))
		}
		fmt.Println(i18n.T("migrate.cli_success"))
		fmt.Println(i18n.T("migrate.cli_next_steps"))
		return nil
	},
}

// appendDSNPassword splices a password into a DSN using the syntax of the
// target driver. The DSN is expected not to carry a password already.
func appendDSNPassword(dbType, dsn, password string) string {
	switch dbType {
	case "postgres":
		if strings.Contains(dsn, "password=") {
			return dsn
		}
		return dsn + " password=" + password
	case "mysql":
		// user@tcp(host)/dbname -> user:password@tcp(host)/dbname
		at := strings.Index(dsn, "@")
		if at < 0 || strings.Contains(dsn[:at], ":") {
			return dsn
		}
		return dsn[:at] + ":" + password + dsn[at:]
	default:
		return dsn
	}
}

// writeCompressedBackup handles the process of writing the backup data to a
// zstd-compressed file. It streams the JSON encoding directly to the zstd
// writer for memory efficiency.
func writeCompressedBackup(filename string, data *model.BackupData) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("could not create file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if err := encodeCompressedBackup(file, data); err != nil {
		return err
	}
	return nil
}

// encodeCompressedBackup writes the zstd-compressed JSON encoding of a
// backup to w.
func encodeCompressedBackup(w io.Writer, data *model.BackupData) error {
	zstdWriter, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("could not create zstd writer: %w", err)
	}

	encoder := json.NewEncoder(zstdWriter)
	encoder.SetIndent("", "  ") // Pretty-print the JSON inside the compressed file

	if err := encoder.Encode(data); err != nil {
		_ = zstdWriter.Close()
		return fmt.Errorf("could not encode json to zstd writer: %w", err)
	}
	return zstdWriter.Close()
}

// readCompressedBackup handles reading and decoding a zstd-compressed JSON backup file.
func readCompressedBackup(filename string) (*model.BackupData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return decodeCompressedBackup(file)
}

// decodeCompressedBackup decodes a zstd-compressed JSON backup from r.
func decodeCompressedBackup(r io.Reader) (*model.BackupData, error) {
	zstdReader, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("could not create zstd reader: %w", err)
	}
	defer zstdReader.Close()

	var backupData model.BackupData
	if err := json.NewDecoder(zstdReader).Decode(&backupData); err != nil {
		return nil, fmt.Errorf("could not decode json from zstd reader: %w", err)
	}

	return &backupData, nil
}
