package login

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/webmail/internal/theme"
)

// LoginSubmittedMsg carries the credentials entered in the login form.
type LoginSubmittedMsg struct {
	Email    string
	Password string
}

// RegisterSubmittedMsg carries the fields entered in the register form.
type RegisterSubmittedMsg struct {
	Name     string
	Email    string
	Password string
}

// SwitchToSettingsMsg is dispatched when the user wants to change the
// server address before logging in.
type SwitchToSettingsMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	name     string
	email    string
	password string
}

// Model is the login/register screen.
type Model struct {
	form         *huh.Form
	fb           *formBindings
	registerMode bool
	errText      string
	width        int
	height       int
}

// New creates the login screen model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start (re)initializes the form in login mode.
func (m *Model) Start() tea.Cmd {
	m.registerMode = false
	m.errText = ""
	m.fb.password = ""
	m.form = m.buildLoginForm()
	return m.form.Init()
}

// StartRegister (re)initializes the form in register mode.
func (m *Model) StartRegister() tea.Cmd {
	m.registerMode = true
	m.errText = ""
	m.fb.password = ""
	m.form = m.buildRegisterForm()
	return m.form.Init()
}

// SetError shows an operation failure above the form.
func (m *Model) SetError(text string) {
	m.errText = text
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles messages for the login screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+r":
			if m.registerMode {
				return m, m.Start()
			}
			return m, m.StartRegister()
		case "ctrl+s":
			return m, func() tea.Msg { return SwitchToSettingsMsg{} }
		}
	}

	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		// Stay on the screen; there is nowhere to go while anonymous.
		return m, m.Start()
	}

	return m, cmd
}

func (m *Model) handleSubmit() tea.Cmd {
	fb := *m.fb
	if m.registerMode {
		return func() tea.Msg {
			return RegisterSubmittedMsg{
				Name:     fb.name,
				Email:    fb.email,
				Password: fb.password,
			}
		}
	}
	return func() tea.Msg {
		return LoginSubmittedMsg{Email: fb.email, Password: fb.password}
	}
}

// View renders the login screen.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "Sign in"
	if m.registerMode {
		titleText = "Create account"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n"
	if m.errText != "" {
		content += theme.ErrorBarStyle.Render(m.errText) + "\n\n"
	}
	content += m.form.View() + "\n" +
		theme.HelpStyle.Render("ctrl+r switch login/register | ctrl+s server settings")

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

func (m *Model) buildLoginForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				Value(&m.fb.email).
				Validate(validateEmail),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(validateRequired("Password")),
		),
	).WithWidth(m.formWidth())
}

func (m *Model) buildRegisterForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&m.fb.name).
				Validate(validateRequired("Name")),
			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				Value(&m.fb.email).
				Validate(validateEmail),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(validateRequired("Password")),
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

func validateRequired(field string) func(string) error {
	return func(v string) error {
		if strings.TrimSpace(v) == "" {
			return errors.New(field + " is required")
		}
		return nil
	}
}

func validateEmail(v string) error {
	v = strings.TrimSpace(v)
	if v == "" || !strings.Contains(v, "@") {
		return errors.New("enter a valid email address")
	}
	return nil
}
