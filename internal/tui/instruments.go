// Copyright (c) 2026 Visamaster Team
// Visamaster - VISA instrument inventory and address toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// instruments.go implements the instrument management view: a table of the
// registered instruments with keys for adding, editing, deleting, toggling,
// copying the VISA address to the clipboard and probing over the network.

package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/instrhub/visamaster/internal/db"
	"github.com/instrhub/visamaster/internal/i18n"
	"github.com/instrhub/visamaster/internal/model"
	"github.com/instrhub/visamaster/internal/probe"
	"github.com/instrhub/visamaster/internal/visa"
)

// A message to signal that we should go back to the main menu.
type backToMenuMsg struct{}

// A message to signal that we should go back to the list from the form.
type backToListMsg struct{}

// A message to signal that an instrument was created.
type instrumentModifiedMsg struct {
	name string
}

// probeFinishedMsg carries the outcome of a background *IDN? probe.
type probeFinishedMsg struct {
	instrument model.Instrument
	identity   model.Identity
	err        error
}

type instrumentsViewState int

const (
	instrumentsListView instrumentsViewState = iota
	instrumentsFormView
)

// instrumentsModel is the model for the instrument management view.
type instrumentsModel struct {
	state         instrumentsViewState
	form          instrumentFormModel
	instruments   []model.Instrument
	table         table.Model
	status        string // For showing status messages like "Deleted..."
	err           error
	probing       bool
	width, height int
}

func newInstrumentsModel() instrumentsModel {
	m := instrumentsModel{}

	columns := []table.Column{
		{Title: "ID", Width: 4},
		{Title: i18n.T("instruments.header_name"), Width: 20},
		{Title: i18n.T("instruments.header_address"), Width: 36},
		{Title: i18n.T("instruments.header_kind"), Width: 6},
		{Title: i18n.T("instruments.header_tags"), Width: 18},
		{Title: i18n.T("instruments.header_status"), Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15), // Placeholder height
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorSubtle).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(colorWhite).
		Background(colorHighlight).
		Bold(false)
	t.SetStyles(s)
	m.table = t

	m.reload()
	return m
}

// reload refreshes the instrument list from the database and rebuilds the
// table rows.
func (m *instrumentsModel) reload() {
	instruments, err := db.GetAllInstruments()
	if err != nil {
		m.err = err
		return
	}
	m.instruments = instruments

	var rows []table.Row
	for _, inst := range instruments {
		status := successStyle.Render(i18n.T("instruments.status_active"))
		name := inst.Name
		if !inst.IsActive {
			status = inactiveItemStyle.Render(i18n.T("instruments.status_inactive"))
			name = inactiveItemStyle.Render(inst.Name)
		}
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", inst.ID), name, inst.Address, inst.Kind, inst.Tags, status,
		})
	}
	m.table.SetRows(rows)
}

// selected returns the instrument under the cursor, or nil when the list is
// empty.
func (m *instrumentsModel) selected() *model.Instrument {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.instruments) {
		return nil
	}
	return &m.instruments[idx]
}

func (m instrumentsModel) Init() tea.Cmd {
	return nil
}

func (m *instrumentsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if m.state == instrumentsFormView {
		switch msg := msg.(type) {
		case backToListMsg:
			m.state = instrumentsListView
			return m, nil
		case instrumentModifiedMsg:
			m.state = instrumentsListView
			m.reload()
			m.status = i18n.T("form.saved") + ": " + msg.name
			return m, nil
		default:
			var newForm tea.Model
			newForm, cmd = m.form.Update(msg)
			m.form = newForm.(instrumentFormModel)
			return m, cmd
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// title(3) + status(1) + help(2)
		m.table.SetHeight(msg.Height - 6)
		m.table.SetWidth(msg.Width - 4)

	case probeFinishedMsg:
		m.probing = false
		if msg.err != nil {
			m.status = errorStyle.Render(fmt.Sprintf("%s: %v", msg.instrument.String(), msg.err))
			return m, nil
		}
		m.reload()
		m.status = successStyle.Render(i18n.T("cli.probe_ok") + ": " + msg.identity.String())
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc":
			return m, func() tea.Msg { return backToMenuMsg{} }
		case "a":
			m.state = instrumentsFormView
			m.form = newInstrumentFormModel()
			return m, m.form.Init()
		case "e":
			inst := m.selected()
			if inst == nil {
				return m, nil
			}
			m.state = instrumentsFormView
			m.form = newInstrumentFormModelForEdit(*inst)
			return m, m.form.Init()
		case "d":
			inst := m.selected()
			if inst == nil {
				return m, nil
			}
			if err := db.DeleteInstrument(inst.ID); err != nil {
				m.status = errorStyle.Render(err.Error())
				return m, nil
			}
			m.reload()
			m.status = i18n.T("instruments.deleted")
			return m, nil
		case "t":
			inst := m.selected()
			if inst == nil {
				return m, nil
			}
			if err := db.ToggleInstrumentStatus(inst.ID); err != nil {
				m.status = errorStyle.Render(err.Error())
				return m, nil
			}
			m.reload()
			return m, nil
		case "c":
			inst := m.selected()
			if inst == nil {
				return m, nil
			}
			if err := clipboard.WriteAll(inst.Address); err != nil {
				m.status = errorStyle.Render(i18n.T("instruments.copy_failed"))
			} else {
				m.status = statusMessageStyle.Render(i18n.T("instruments.copied"))
			}
			return m, nil
		case "p":
			inst := m.selected()
			if inst == nil || m.probing {
				return m, nil
			}
			m.probing = true
			m.status = i18n.T("instruments.probing", inst.String())
			return m, probeInstrumentCmd(*inst)
		}
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// probeInstrumentCmd runs a *IDN? exchange in the background and persists
// the identity on success.
func probeInstrumentCmd(inst model.Instrument) tea.Cmd {
	return func() tea.Msg {
		addr, err := visa.Parse(inst.Address)
		if err != nil {
			return probeFinishedMsg{instrument: inst, err: err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), probe.DefaultTimeout)
		defer cancel()
		id, raw, err := probe.IDN(ctx, addr)
		if err != nil {
			return probeFinishedMsg{instrument: inst, err: err}
		}

		if err := db.UpdateInstrumentIdentity(inst.ID, raw, time.Now()); err != nil {
			return probeFinishedMsg{instrument: inst, err: err}
		}
		_ = db.LogAction("PROBE_INSTRUMENT", fmt.Sprintf("%s -> %s", inst.String(), raw))
		return probeFinishedMsg{instrument: inst, identity: id}
	}
}

func (m *instrumentsModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error loading instruments: %v", m.err))
	}
	if m.state == instrumentsFormView {
		return m.form.View()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("🔬 "+i18n.T("instruments.title")) + "\n\n")

	if len(m.instruments) == 0 {
		b.WriteString(helpStyle.Render(i18n.T("instruments.empty")) + "\n")
	} else {
		b.WriteString(m.table.View() + "\n")
	}

	if m.status != "" {
		b.WriteString(m.status + "\n")
	}
	b.WriteString(helpStyle.Render(i18n.T("instruments.help")))
	return b.String()
}
