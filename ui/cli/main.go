// Copyright (c) 2026 Visamaster Team
// Visamaster - VISA instrument inventory and address toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface (CLI) for the Visamaster
// application using the Cobra library. It defines the root command,
// subcommands (like add, list, probe, backup), flags, and the main
// entry point for execution.

package cli

import (
	"bufio"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"

	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/instrhub/visamaster/internal/config"
	"github.com/instrhub/visamaster/internal/db"
	"github.com/instrhub/visamaster/internal/i18n"
	"github.com/instrhub/visamaster/internal/logging"
	"github.com/instrhub/visamaster/internal/tui"
)

var version = "dev"   // this will be set by the linker
var gitCommit = "dev" // set at build time with the short commit SHA
var buildDate = ""    // set at build time (RFC3339)
var cfgFile string
var verbose bool
var showVersionFlag bool

var appConfig config.Config

// configDefaults are the values every install starts from. They are also
// used to backfill empty fields from a hand-edited config file.
var configDefaults = map[string]any{
	"database.type":         "sqlite",
	"database.dsn":          "./visamaster.db",
	"language":              "en",
	"probe.timeout_seconds": 5,
}

func setupDefaultServices(cmd *cobra.Command, args []string) error {
	// Load optional config file argument from cli
	optionalConfigPath, err := getConfigPathFromCli(cmd)
	if err != nil {
		return err
	}

	appConfig, err = config.LoadConfig[config.Config](cmd, configDefaults, optionalConfigPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	// First run: persist a default config file so subsequent runs have a
	// file to inspect and edit. Failure to write is not fatal; the app
	// runs fine on defaults.
	if userPath, perr := config.UserConfigPath(); perr == nil && optionalConfigPath == nil {
		if _, serr := os.Stat(userPath); os.IsNotExist(serr) {
			if writeErr := config.WriteConfigFile(&appConfig, false); writeErr != nil {
				log.Warnf("Warning: could not write default config file: %v", writeErr)
			}
		}
	}

	// Backfill critical values a hand-edited config file may have blanked.
	if appConfig.Database.Type == "" {
		appConfig.Database.Type = configDefaults["database.type"].(string)
	}
	if appConfig.Database.Dsn == "" {
		appConfig.Database.Dsn = configDefaults["database.dsn"].(string)
	}
	if appConfig.Language == "" {
		appConfig.Language = configDefaults["language"].(string)
	}
	if appConfig.Probe.TimeoutSeconds <= 0 {
		appConfig.Probe.TimeoutSeconds = configDefaults["probe.timeout_seconds"].(int)
	}

	// Initialize i18n
	i18n.Init(appConfig.Language)

	// Let the TUI persist language changes back to the config file.
	tui.SetConfigSaver(cliConfigSaver{})

	// Initialize the database if not already initialized by tests or earlier setup.
	if !db.IsInitialized() {
		if _, err := db.New(appConfig.Database.Type, appConfig.Database.Dsn); err != nil {
			return fmt.Errorf("%s", i18n.T("cli.error_init_db", err))
		}
	}

	return nil
}

// cliConfigSaver persists TUI-side language changes into the user config
// file.
type cliConfigSaver struct{}

func (cliConfigSaver) SaveLanguage(lang string) error {
	appConfig.Language = lang
	return config.WriteConfigFile(&appConfig, false)
}

// probeTimeout returns the configured per-probe deadline.
func probeTimeout() time.Duration {
	secs := appConfig.Probe.TimeoutSeconds
	if secs <= 0 {
		secs = configDefaults["probe.timeout_seconds"].(int)
	}
	return time.Duration(secs) * time.Second
}

// Execute runs the CLI entrypoint. The root main package should call this
// function and handle process exit.
func Execute() error {
	rootCmd := NewRootCmd()

	if err := rootCmd.Execute(); err != nil {
		return err
	}

	return nil
}

func applyDefaultFlags(cmd *cobra.Command) {
	// Avoid redefining flags if they already exist (NewRootCmd may be called
	// multiple times in tests which creates a new root but uses package-level
	// subcommands). pflag will panic on duplicate flag definitions, so check
	// first.
	if cmd.Flags().Lookup("database.type") == nil {
		cmd.Flags().String("database.type", "sqlite", "Database type (e.g., sqlite, postgres)")
	}
	if cmd.Flags().Lookup("database.dsn") == nil {
		cmd.Flags().String("database.dsn", "./visamaster.db", "Database connection string (DSN)")
	}
}

func getConfigPathFromCli(cmd *cobra.Command) (*string, error) {
	// Only proceed if the user has explicitly set the --config flag.
	if cmd.Flags().Changed("config") {
		path, err := cmd.Flags().GetString("config")
		if err != nil {
			// This is unlikely if Changed() is true, but good practice.
			return nil, fmt.Errorf("could not read --config flag: %w", err)
		}

		// If the flag is set but the value is empty, do nothing.
		if path == "" {
			return nil, nil
		}

		// Make sure the user-provided file exists to avoid unwanted behavior.
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
		}
		return &path, nil // Return the valid path
	}
	return nil, nil
}

// NewRootCmd creates and configures a new root cobra command.
// This function is used to create the main application command as well as
// fresh instances for isolated testing.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "visamaster",
		Short: "Visamaster is an inventory and toolkit for VISA instruments.",
		Long: `Visamaster keeps a database of your bench and rack instruments,
addressed by their VISA resource strings (USB, TCPIP, GPIB, ASRL, VXI).
It validates and canonicalizes addresses, probes networked instruments
with *IDN?, and tracks who changed what in an audit log.

Running without a subcommand will launch the interactive TUI.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if showVersionFlag {
				v, c, d := resolveBuildVersion(nil)
				compositeVersion := v
				if c != "" && c != "dev" {
					compositeVersion = compositeVersion + " (" + c + ")"
				}
				if d != "" {
					compositeVersion = compositeVersion + " built: " + d
				}
				fmt.Printf("%s\n", compositeVersion)
				os.Exit(0)
			}
			if verbose {
				logging.SetDebug(true)
				db.SetDebug(true)
			}
			return setupDefaultServices(cmd, args)
		},
		Run: func(cmd *cobra.Command, args []string) {
			// The database is already initialized by PersistentPreRunE.
			// i18n is also initialized, so we can just run the TUI.
			tui.Run()
		},
	}

	v, c, d := resolveBuildVersion(nil)
	compositeVersion := v
	if c != "" && c != "dev" {
		compositeVersion = compositeVersion + " (" + c + ")"
	}
	if d != "" {
		compositeVersion = compositeVersion + " built: " + d
	}
	cmd.Version = compositeVersion

	// Define flags
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output (sets -v for DB logs)")
	cmd.PersistentFlags().BoolVarP(&showVersionFlag, "version", "V", false, "Print version and exit")
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file")
	cmd.PersistentFlags().String("language", "en", `UI language ("en", "de")`)
	applyDefaultFlags(cmd)

	// Add subcommand flags
	applyDefaultFlags(addCmd)
	if addCmd.Flags().Lookup("name") == nil {
		addCmd.Flags().StringP("name", "n", "", "Display name for the instrument")
	}
	if addCmd.Flags().Lookup("tags") == nil {
		addCmd.Flags().StringP("tags", "t", "", "Comma-separated tags (e.g. bench:3,cal:2026)")
	}
	applyDefaultFlags(listCmd)
	if listCmd.Flags().Lookup("all") == nil {
		listCmd.Flags().BoolP("all", "a", false, "Include inactive instruments")
	}
	applyDefaultFlags(rmCmd)
	applyDefaultFlags(toggleCmd)
	applyDefaultFlags(tagCmd)
	applyDefaultFlags(labelCmd)
	applyDefaultFlags(probeCmd)
	if probeCmd.Flags().Lookup("query") == nil {
		probeCmd.Flags().StringP("query", "q", "", "Send a raw SCPI query instead of *IDN?")
	}
	applyDefaultFlags(auditLogCmd)
	applyDefaultFlags(dbMaintainCmd)
	if dbMaintainCmd.Flags().Lookup("skip-integrity") == nil {
		dbMaintainCmd.Flags().Bool("skip-integrity", false, "Skip integrity_check (SQLite) during maintenance")
	}
	if dbMaintainCmd.Flags().Lookup("timeout") == nil {
		dbMaintainCmd.Flags().Int("timeout", 0, "Timeout in seconds for maintenance (0 means no timeout)")
	}
	if dbMaintainCmd.Flags().Lookup("prompt-password") == nil {
		dbMaintainCmd.Flags().Bool("prompt-password", false, "Prompt for the database password instead of embedding it in the DSN")
	}
	applyDefaultFlags(restoreCmd)
	if restoreCmd.Flags().Lookup("full") == nil {
		restoreCmd.Flags().BoolVar(&fullRestore, "full", false, "Perform a full, destructive restore (wipes all existing data first)")
	}
	applyDefaultFlags(migrateCmd)
	if migrateCmd.Flags().Lookup("prompt-password") == nil {
		migrateCmd.Flags().Bool("prompt-password", false, "Prompt for the target database password instead of embedding it in the DSN")
	}

	// Add a lightweight `version` subcommand so users and CI can run `visamaster version`.
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			resolvedVersion, resolvedCommit, resolvedDate := resolveBuildVersion(nil)
			fmt.Printf("version: %s\n", resolvedVersion)
			fmt.Printf("commit: %s\n", resolvedCommit)
			if resolvedDate != "" {
				fmt.Printf("built: %s\n", resolvedDate)
			}
		},
	}

	// Add subcommands to the newly created root command.
	cmd.AddCommand(
		parseCmd,
		addCmd,
		listCmd,
		rmCmd,
		toggleCmd,
		tagCmd,
		labelCmd,
		probeCmd,
		auditLogCmd,
		dbMaintainCmd,
		backupCmd,
		restoreCmd,
		migrateCmd,
		versionCmd,
	)

	return cmd
}

// resolveBuildVersion computes the best-available version, commit and build
// date for the running binary. If `info` is nil, it reads build info from
// the runtime. This helper is separated to make unit testing straightforward.
func resolveBuildVersion(info *debug.BuildInfo) (versionOut, commitOut, dateOut string) {
	resolvedVersion := version
	resolvedCommit := gitCommit
	resolvedDate := buildDate

	var ok bool
	if info == nil {
		if infoLocal, found := debug.ReadBuildInfo(); found {
			info = infoLocal
			ok = true
		}
	} else {
		ok = true
	}

	if ok && info != nil {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			resolvedVersion = info.Main.Version
		}
		// If Main doesn't contain the version (some build paths), try to
		// find our module in the dependencies and use that version.
		if (resolvedVersion == "dev" || resolvedVersion == "(devel)") && info.Deps != nil {
			for _, dep := range info.Deps {
				if dep.Path == "github.com/instrhub/visamaster" && dep.Version != "" {
					resolvedVersion = dep.Version
					break
				}
			}
		}

		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if s.Value != "" {
					resolvedCommit = s.Value
				}
			case "vcs.time":
				if s.Value != "" {
					resolvedDate = s.Value
				}
			}
		}
	}

	// As a last resort, if no version was discovered, but a gitCommit was
	// provided via ldflags, show that to aid support.
	if resolvedVersion == "dev" && gitCommit != "dev" && gitCommit != "" {
		resolvedVersion = gitCommit
	}

	return resolvedVersion, resolvedCommit, resolvedDate
}

// dbMaintainCmd runs database maintenance tasks for the configured database.
var dbMaintainCmd = &cobra.Command{
	Use:     "db-maintain",
	Short:   "Run database maintenance (VACUUM/OPTIMIZE) for the configured DB",
	Long:    `Runs engine-specific maintenance tasks (VACUUM, OPTIMIZE TABLE, PRAGMA optimize).`,
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		skipIntegrity, _ := cmd.Flags().GetBool("skip-integrity")
		timeoutSec, _ := cmd.Flags().GetInt("timeout")
		dsn := appConfig.Database.Dsn
		dbType := appConfig.Database.Type
		if prompt, _ := cmd.Flags().GetBool("prompt-password"); prompt {
			password, err := promptForPassword("Database password: ")
			if err != nil {
				log.Fatalf("could not read password: %v", err)
			}
			if password != "" {
				dsn = appendDSNPassword(dbType, dsn, password)
			}
		}
		if skipIntegrity {
			fmt.Println("Skipping integrity_check may speed up maintenance on large databases")
		}
		if timeoutSec > 0 {
			done := make(chan error, 1)
			go func() {
				done <- db.RunDBMaintenance(dbType, dsn, db.MaintenanceOptions{SkipIntegrity: skipIntegrity})
			}()
			select {
			case err := <-done:
				if err != nil {
					fmt.Printf("Maintenance failed: %v\n", err)
					os.Exit(1)
				}
				fmt.Println("Maintenance completed successfully")
			case <-time.After(time.Duration(timeoutSec) * time.Second):
				fmt.Println("Maintenance timed out")
				os.Exit(2)
			}
			return
		}
		if err := db.RunDBMaintenance(dbType, dsn, db.MaintenanceOptions{SkipIntegrity: skipIntegrity}); err != nil {
			fmt.Printf("Maintenance failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Maintenance completed successfully")
	},
}

// promptForConfirmation displays a prompt and reads a line from stdin.
func promptForConfirmation(prompt string) string {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	return strings.TrimSpace(strings.ToLower(answer))
}

// promptForPassword reads a password from the terminal without echo. It
// returns an empty string when stdin is not a terminal.
func promptForPassword(prompt string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", nil
	}
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(bytePassword), nil
}
