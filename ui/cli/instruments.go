// Copyright (c) 2026 Visamaster Team
// Visamaster - VISA instrument inventory and address toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// instruments.go holds the inventory-facing subcommands: validating VISA
// resource strings, registering instruments, listing and editing them, and
// probing networked instruments with SCPI queries.

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/instrhub/visamaster/internal/db"
	"github.com/instrhub/visamaster/internal/i18n"
	"github.com/instrhub/visamaster/internal/model"
	"github.com/instrhub/visamaster/internal/probe"
	"github.com/instrhub/visamaster/internal/visa"
)

// parseCmd validates a VISA resource string without touching the database.
var parseCmd = &cobra.Command{
	Use:   "parse <visa-address>",
	Short: "Validate a VISA resource string and print its canonical form",
	Long: `Parses a VISA resource string and prints its canonical form along with
the individual address fields. Exits non-zero if the address is invalid.

Examples:
  visamaster parse "USB::0x1A34::0x5678::A22-5"
  visamaster parse "TCPIP::scope-01.lab::INSTR"
  visamaster parse "GPIB0::22::INSTR"`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		addr, err := visa.Parse(args[0])
		if err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Printf("%s (%s)\n", i18n.T("cli.parse_valid"), addr.Kind())
		fmt.Printf("%s: %s\n", i18n.T("cli.parse_canonical"), addr.String())
		printAddressFields(addr)
	},
}

// printAddressFields dumps the typed fields of a parsed address, skipping
// the optional ones that were not given.
func printAddressFields(addr visa.Address) {
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	switch a := addr.(type) {
	case visa.USBAddress:
		if a.Board >= 0 {
			fmt.Fprintf(w, "  board:\t%d\n", a.Board)
		}
		fmt.Fprintf(w, "  manufacturer id:\t0x%X\n", a.ManufacturerID)
		fmt.Fprintf(w, "  model code:\t0x%X\n", a.ModelCode)
		fmt.Fprintf(w, "  serial number:\t%s\n", a.SerialNumber)
		if a.InterfaceNumber >= 0 {
			fmt.Fprintf(w, "  usb interface:\t%d\n", a.InterfaceNumber)
		}
	case visa.TCPIPAddress:
		if a.Board >= 0 {
			fmt.Fprintf(w, "  board:\t%d\n", a.Board)
		}
		fmt.Fprintf(w, "  host:\t%s\n", a.Host)
		if a.Socket {
			fmt.Fprintf(w, "  port:\t%d\n", a.Port)
		} else if a.LANDevice != "" {
			fmt.Fprintf(w, "  lan device:\t%s\n", a.LANDevice)
		}
	case visa.GPIBAddress:
		if a.Board >= 0 {
			fmt.Fprintf(w, "  board:\t%d\n", a.Board)
		}
		fmt.Fprintf(w, "  primary address:\t%d\n", a.Primary)
		if a.Secondary >= 0 {
			fmt.Fprintf(w, "  secondary address:\t%d\n", a.Secondary)
		}
	case visa.ASRLAddress:
		if a.Board >= 0 {
			fmt.Fprintf(w, "  board:\t%d\n", a.Board)
		}
	case visa.VXIAddress:
		if a.Board >= 0 {
			fmt.Fprintf(w, "  board:\t%d\n", a.Board)
		}
		fmt.Fprintf(w, "  logical address:\t%d\n", a.Logical)
	}
}

// addCmd registers a new instrument under its canonical VISA address.
var addCmd = &cobra.Command{
	Use:     "add <visa-address>",
	Short:   "Register an instrument in the inventory",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		addr, err := visa.Parse(args[0])
		if err != nil {
			log.Fatalf("%v", err)
		}
		name, _ := cmd.Flags().GetString("name")
		tags, _ := cmd.Flags().GetString("tags")
		if name == "" {
			name = addr.String()
		}

		id, err := db.AddInstrument(name, addr.String(), addr.Kind().String(), tags)
		if err != nil {
			if errors.Is(err, db.ErrDuplicate) {
				log.Fatalf("%s", i18n.T("cli.duplicate", addr.String()))
			}
			log.Fatalf("%v", err)
		}
		fmt.Printf("%s\n", i18n.T("cli.add_success", id, addr.String()))
	},
}

// listCmd prints the inventory. Inactive instruments are hidden unless
// --all is given.
var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List registered instruments",
	Args:    cobra.NoArgs,
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		showAll, _ := cmd.Flags().GetBool("all")
		var instruments []model.Instrument
		var err error
		if showAll {
			instruments, err = db.GetAllInstruments()
		} else {
			instruments, err = db.GetActiveInstruments()
		}
		if err != nil {
			log.Fatalf("%v", err)
		}
		if len(instruments) == 0 {
			fmt.Println(i18n.T("cli.list_empty"))
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintf(w, "ID\t%s\t%s\t%s\t%s\t%s\n",
			i18n.T("instruments.header_name"),
			i18n.T("instruments.header_address"),
			i18n.T("instruments.header_kind"),
			i18n.T("instruments.header_tags"),
			i18n.T("instruments.header_status"))
		for _, inst := range instruments {
			status := i18n.T("instruments.status_active")
			if !inst.IsActive {
				status = i18n.T("instruments.status_inactive")
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", inst.ID, inst.Name, inst.Address, inst.Kind, inst.Tags, status)
		}
		_ = w.Flush()
	},
}

// rmCmd deletes an instrument.
var rmCmd = &cobra.Command{
	Use:     "rm <id|address|name>",
	Short:   "Remove an instrument from the inventory",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		inst := mustResolveInstrument(args[0])
		if err := db.DeleteInstrument(inst.ID); err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Printf("%s\n", i18n.T("cli.rm_success", inst.String()))
	},
}

// toggleCmd flips an instrument between active and inactive.
var toggleCmd = &cobra.Command{
	Use:     "toggle <id|address|name>",
	Short:   "Toggle an instrument's active status",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		inst := mustResolveInstrument(args[0])
		if err := db.ToggleInstrumentStatus(inst.ID); err != nil {
			log.Fatalf("%v", err)
		}
		status := i18n.T("instruments.status_active")
		if inst.IsActive {
			status = i18n.T("instruments.status_inactive")
		}
		fmt.Printf("%s\n", i18n.T("cli.toggle_success", inst.String(), status))
	},
}

// tagCmd replaces the tag string of an instrument.
var tagCmd = &cobra.Command{
	Use:     "tag <id|address|name> <tags>",
	Short:   "Set the tags of an instrument",
	Long:    `Replaces the instrument's tags with the given comma-separated list. Pass "" to clear them.`,
	Args:    cobra.ExactArgs(2),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		inst := mustResolveInstrument(args[0])
		if err := db.UpdateInstrumentTags(inst.ID, args[1]); err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Printf("%s\n", i18n.T("cli.tag_success", inst.String()))
	},
}

// labelCmd renames an instrument.
var labelCmd = &cobra.Command{
	Use:     "label <id|address|name> <new-name>",
	Short:   "Rename an instrument",
	Args:    cobra.ExactArgs(2),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		inst := mustResolveInstrument(args[0])
		if err := db.UpdateInstrumentName(inst.ID, args[1]); err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Printf("%s\n", i18n.T("cli.label_success", args[1]))
	},
}

// probeCmd sends *IDN? (or a raw SCPI query) to a networked instrument.
// The target may be an inventory entry or a bare TCPIP address; for
// inventory entries a successful *IDN? updates the stored identity.
var probeCmd = &cobra.Command{
	Use:     "probe <id|address|name>",
	Short:   "Probe an instrument over the network with *IDN?",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		inst, addr := resolveProbeTarget(args[0])

		ctx, cancel := contextWithProbeTimeout(cmd)
		defer cancel()

		if query, _ := cmd.Flags().GetString("query"); query != "" {
			reply, err := probe.Query(ctx, addr, query)
			if err != nil {
				log.Fatalf("%v", err)
			}
			fmt.Println(reply)
			return
		}

		id, raw, err := probe.IDN(ctx, addr)
		if err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Printf("%s: %s\n", i18n.T("cli.probe_ok"), id.String())

		if inst != nil {
			if err := db.UpdateInstrumentIdentity(inst.ID, raw, time.Now()); err != nil {
				log.Errorf("could not store identity for %s: %v", inst.String(), err)
				return
			}
			_ = db.LogAction("PROBE_INSTRUMENT", fmt.Sprintf("%s -> %s", inst.String(), raw))
			fmt.Printf("%s\n", i18n.T("cli.probe_updated", inst.String()))
		}
	},
}

// auditLogCmd prints the audit trail, most recent entry first.
var auditLogCmd = &cobra.Command{
	Use:     "audit-log",
	Short:   "Show the audit log",
	Args:    cobra.NoArgs,
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		entries, err := db.GetAllAuditLogEntries()
		if err != nil {
			log.Fatalf("%v", err)
		}
		if len(entries) == 0 {
			fmt.Println(i18n.T("audit.empty"))
			return
		}
		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\n", e.Timestamp, e.Action, e.Details)
		}
		_ = w.Flush()
	},
}

func contextWithProbeTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), probeTimeout())
}

// resolveProbeTarget turns a CLI argument into a probe target. Inventory
// entries win; a bare VISA address that is not registered can still be
// probed ad hoc.
func resolveProbeTarget(identifier string) (*model.Instrument, visa.Address) {
	if inst, err := findInstrument(identifier); err == nil {
		addr, perr := visa.Parse(inst.Address)
		if perr != nil {
			log.Fatalf("stored address %q is no longer parseable: %v", inst.Address, perr)
		}
		return inst, addr
	}
	addr, err := visa.Parse(identifier)
	if err != nil {
		log.Fatalf("%s", i18n.T("cli.error_not_found", identifier))
	}
	return nil, addr
}

// mustResolveInstrument looks up an inventory entry and exits if there is
// no match.
func mustResolveInstrument(identifier string) *model.Instrument {
	inst, err := findInstrument(identifier)
	if err != nil {
		log.Fatalf("%s", i18n.T("cli.error_not_found", identifier))
	}
	return inst
}

// findInstrument resolves an identifier against the inventory. It accepts a
// numeric ID, a VISA address (compared in canonical form) or an exact name.
func findInstrument(identifier string) (*model.Instrument, error) {
	if id, err := strconv.Atoi(identifier); err == nil {
		return db.GetInstrument(id)
	}

	lookup := identifier
	if addr, err := visa.Parse(identifier); err == nil {
		lookup = addr.String()
	}
	if inst, err := db.GetInstrumentByAddress(lookup); err == nil {
		return inst, nil
	}

	instruments, err := db.GetAllInstruments()
	if err != nil {
		return nil, err
	}
	for i := range instruments {
		if strings.EqualFold(instruments[i].Name, identifier) {
			return &instruments[i], nil
		}
	}
	return nil, db.ErrNotFound
}
