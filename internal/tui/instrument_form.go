// Copyright (c) 2026 Visamaster Team
// Visamaster - VISA instrument inventory and address toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/instrhub/visamaster/internal/db"
	"github.com/instrhub/visamaster/internal/i18n"
	"github.com/instrhub/visamaster/internal/model"
	"github.com/instrhub/visamaster/internal/visa"
)

type instrumentFormModel struct {
	focusIndex int
	inputs     []textinput.Model // 0: name, 1: address, 2: tags
	editID     int               // 0 when adding, the instrument ID when editing
	err        error
}

func newInstrumentFormModel() instrumentFormModel {
	m := instrumentFormModel{
		inputs: make([]textinput.Model, 3),
	}

	var t textinput.Model
	for i := range m.inputs {
		t = textinput.New()
		t.Cursor.Style = focusedStyle
		t.CharLimit = 128
		t.Width = 44 // Give the input a fixed width

		switch i {
		case 0:
			t.Prompt = "Name:                   "
			t.Placeholder = "scope-01"
		case 1:
			t.Prompt = "VISA address:           "
			t.Placeholder = "TCPIP::10.0.0.5::INSTR"
		case 2:
			t.Prompt = "Tags (comma-separated): "
			t.Placeholder = "bench:3,cal:2026"
		}
		m.inputs[i] = t
	}

	m.inputs[0].Focus()
	m.inputs[0].TextStyle = focusedStyle

	return m
}

// newInstrumentFormModelForEdit returns the form pre-populated with an
// existing instrument; submitting rewrites the record instead of inserting.
func newInstrumentFormModelForEdit(inst model.Instrument) instrumentFormModel {
	m := newInstrumentFormModel()
	m.editID = inst.ID
	m.inputs[0].SetValue(inst.Name)
	m.inputs[1].SetValue(inst.Address)
	m.inputs[2].SetValue(inst.Tags)
	return m
}

func (m instrumentFormModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m instrumentFormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		// Go back to the instruments list.
		case "esc":
			return m, func() tea.Msg { return backToListMsg{} }

		// Set focus to next input
		case "tab", "shift+tab", "enter", "up", "down":
			s := msg.String()

			// Did the user press enter while the submit button was focused?
			// If so, register the instrument.
			if s == "enter" && m.focusIndex == len(m.inputs) {
				name := strings.TrimSpace(m.inputs[0].Value())
				address := strings.TrimSpace(m.inputs[1].Value())
				tags := strings.TrimSpace(m.inputs[2].Value())

				addr, err := visa.Parse(address)
				if err != nil {
					m.err = fmt.Errorf("%s: %w", i18n.T("form.error_address"), err)
					return m, nil
				}
				if name == "" {
					name = addr.String()
				}

				if m.editID != 0 {
					err = db.UpdateInstrument(m.editID, name, addr.String(), addr.Kind().String(), tags)
				} else {
					_, err = db.AddInstrument(name, addr.String(), addr.Kind().String(), tags)
				}
				if err != nil {
					if errors.Is(err, db.ErrDuplicate) {
						m.err = errors.New(i18n.T("form.duplicate"))
					} else {
						m.err = err
					}
					return m, nil
				}
				// Signal that we're done.
				return m, func() tea.Msg { return instrumentModifiedMsg{name: name} }
			}

			// Cycle focus through all fields and the submit button.
			if s == "up" || s == "shift+tab" {
				m.focusIndex--
			} else {
				m.focusIndex++
			}
			if m.focusIndex > len(m.inputs) {
				m.focusIndex = 0
			} else if m.focusIndex < 0 {
				m.focusIndex = len(m.inputs)
			}

			cmds := make([]tea.Cmd, len(m.inputs))
			for i := 0; i <= len(m.inputs)-1; i++ {
				if i == m.focusIndex {
					cmds[i] = m.inputs[i].Focus()
					m.inputs[i].TextStyle = focusedStyle
					continue
				}
				m.inputs[i].Blur()
				m.inputs[i].TextStyle = lipgloss.NewStyle()
			}

			return m, tea.Batch(cmds...)
		}
	}

	// Handle character input and blinking
	cmd := m.updateInputs(msg)
	return m, cmd
}

func (m *instrumentFormModel) updateInputs(msg tea.Msg) tea.Cmd {
	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}
	return tea.Batch(cmds...)
}

func (m instrumentFormModel) View() string {
	var viewItems []string

	title := i18n.T("form.title")
	if m.editID != 0 {
		title = i18n.T("form.title_edit")
	}
	viewItems = append(viewItems, titleStyle.Render("✨ "+title))

	// The title's padding adds a newline, so we add one more for a blank line.
	viewItems = append(viewItems, "")
	for i := range m.inputs {
		viewItems = append(viewItems, m.inputs[i].View())
	}

	button := itemStyle.Render("[ " + i18n.T("form.submit") + " ]")
	if m.focusIndex == len(m.inputs) {
		button = selectedItemStyle.Render("[ " + i18n.T("form.submit") + " ]")
	}
	viewItems = append(viewItems, "", button) // Blank line before button

	if m.err != nil {
		viewItems = append(viewItems, "", errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	viewItems = append(viewItems, "", helpStyle.Render("(tab to navigate, enter to submit, esc to cancel)"))

	return lipgloss.JoinVertical(lipgloss.Left, viewItems...)
}
