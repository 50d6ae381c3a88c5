package account

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/webmail/internal/model"
	"github.com/nhle/webmail/internal/theme"
)

// UpdateSubmittedMsg carries the profile changes to apply. Password is
// empty when the user kept their current one.
type UpdateSubmittedMsg struct {
	Name     string
	Password string
}

// DeleteConfirmedMsg is sent after the user confirms account deletion.
type DeleteConfirmedMsg struct{}

// CancelMsg is sent when the user leaves the account screen.
type CancelMsg struct{}

type formBindings struct {
	name     string
	password string
	confirm  bool
}

// Model is the account screen: profile update and account deletion.
type Model struct {
	form       *huh.Form
	fb         *formBindings
	deleteMode bool
	email      string
	errText    string
	width      int
	height     int
}

// New creates the account screen model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start opens the profile form prefilled from the signed-in user.
func (m *Model) Start(u model.User) tea.Cmd {
	m.deleteMode = false
	m.errText = ""
	m.email = u.Email
	m.fb.name = u.Name
	m.fb.password = ""
	m.form = m.buildEditForm()
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

func (m *Model) startDelete() tea.Cmd {
	m.deleteMode = true
	m.fb.confirm = false
	m.form = m.buildDeleteForm()
	return m.form.Init()
}

// Update handles messages for the account screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "ctrl+d" && !m.deleteMode {
		return m, m.startDelete()
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
		if m.deleteMode {
			// Back out of deletion into the edit form.
			m.deleteMode = false
			m.form = m.buildEditForm()
			return m, m.form.Init()
		}
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

func (m *Model) handleSubmit() tea.Cmd {
	if m.deleteMode {
		if !m.fb.confirm {
			m.deleteMode = false
			m.form = m.buildEditForm()
			return m.form.Init()
		}
		return func() tea.Msg { return DeleteConfirmedMsg{} }
	}

	submitted := UpdateSubmittedMsg{
		Name:     strings.TrimSpace(m.fb.name),
		Password: m.fb.password,
	}
	return func() tea.Msg { return submitted }
}

// View renders the account screen.
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

	var b strings.Builder
	if m.deleteMode {
		b.WriteString(titleStyle.Render("Delete account"))
		b.WriteString("\n")
		b.WriteString(noteStyle.Render("This removes " + m.email + " and everything in it."))
	} else {
		b.WriteString(titleStyle.Render("Account"))
		b.WriteString("\n")
		b.WriteString(noteStyle.Render(m.email + "  (ctrl+d to delete account)"))
	}
	if m.errText != "" {
		b.WriteString("\n")
		b.WriteString(theme.ErrorBarStyle.Render(m.errText))
	}
	b.WriteString("\n")
	b.WriteString(m.form.View())

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(b.String())
}

func (m *Model) buildEditForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&m.fb.name).
				Validate(validateName),
			huh.NewInput().
				Title("New password").
				Description("Leave blank to keep the current one.").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password),
		),
	).WithWidth(m.formWidth())
}

func (m *Model) buildDeleteForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Permanently delete this account?").
				Affirmative("Delete").
				Negative("Keep it").
				Value(&m.fb.confirm),
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

func validateName(v string) error {
	if strings.TrimSpace(v) == "" {
		return errors.New("Name is required")
	}
	return nil
}
