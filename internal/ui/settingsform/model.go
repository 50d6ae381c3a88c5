package settingsform

import (
	"errors"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/webmail/internal/model"
	"github.com/nhle/webmail/internal/theme"
)

// SubmittedMsg carries the endpoint settings the user confirmed.
type SubmittedMsg struct {
	Settings model.EndpointSettings
}

// CancelMsg is sent when the user leaves the settings screen without saving.
type CancelMsg struct{}

type formBindings struct {
	host string
	port string
}

// Model is the server endpoint settings screen.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	width  int
	height int
}

// New creates the settings model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start opens the form prefilled with the current settings.
func (m *Model) Start(current model.EndpointSettings) tea.Cmd {
	m.fb.host = current.Host
	m.fb.port = current.Port
	m.form = m.buildForm()
	return m.form.Init()
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles messages for the settings screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		submitted := SubmittedMsg{Settings: model.EndpointSettings{
			Host: strings.TrimSpace(m.fb.host),
			Port: strings.TrimSpace(m.fb.port),
		}}
		return m, func() tea.Msg { return submitted }
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the settings screen.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	noteStyle := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		MarginBottom(1)

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(titleStyle.Render("Server settings") + "\n" +
			noteStyle.Render("Changing the server signs you out.") + "\n" +
			m.form.View())
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Host").
				Placeholder("localhost").
				Value(&m.fb.host).
				Validate(validateHost),
			huh.NewInput().
				Title("Port").
				Placeholder("8080").
				Value(&m.fb.port).
				Validate(validatePort),
		),
	).WithWidth(m.formWidth())
}

func (m *Model) formWidth() int {
	w := m.width - 8
	if w > 60 {
		w = 60
	}
	if w < 20 {
		w = 20
	}
	return w
}

func validateHost(v string) error {
	if strings.TrimSpace(v) == "" {
		return errors.New("Host is required")
	}
	return nil
}

func validatePort(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return errors.New("Port is required")
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > 65535 {
		return errors.New("enter a port between 1 and 65535")
	}
	return nil
}
