package compose

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/webmail/internal/mailbox"
	"github.com/nhle/webmail/internal/model"
	"github.com/nhle/webmail/internal/theme"
)

// Action is what the user chose to do with the composed message.
type Action string

const (
	ActionSend      Action = "send"
	ActionSaveDraft Action = "save"
)

// SubmittedMsg carries the composed fields. DraftID is non-zero when the
// editing session started from a saved draft.
type SubmittedMsg struct {
	Action  Action
	Fields  mailbox.DraftFields
	DraftID int
}

// CancelMsg is sent when the user abandons the compose screen.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	recipient string
	subject   string
	body      string
	action    string
}

// Model is the compose screen: new message, editing a saved draft, or a
// reply prefill.
type Model struct {
	form    *huh.Form
	fb      *formBindings
	draftID int
	width   int
	height  int
}

// New creates the compose model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// StartNew opens an empty compose session.
func (m *Model) StartNew() tea.Cmd {
	return m.start(0, mailbox.DraftFields{})
}

// StartDraft opens an editing session over a saved draft.
func (m *Model) StartDraft(d model.Draft) tea.Cmd {
	return m.start(d.ID, mailbox.DraftFields{
		Recipient: d.Recipient,
		Subject:   d.Subject,
		Body:      d.Body,
	})
}

// StartReply opens a compose session prefilled with reply fields. The
// session is unsaved until the user saves it as a draft or sends it.
func (m *Model) StartReply(fields mailbox.DraftFields) tea.Cmd {
	return m.start(0, fields)
}

// PromoteToDraft transitions an unsaved session into an
// editing-existing-draft session after a successful first save.
func (m *Model) PromoteToDraft(id int) {
	m.draftID = id
}

// DraftID returns the draft the session edits, or 0 when unsaved.
func (m *Model) DraftID() int {
	return m.draftID
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) start(draftID int, fields mailbox.DraftFields) tea.Cmd {
	m.draftID = draftID
	m.fb.recipient = fields.Recipient
	m.fb.subject = fields.Subject
	m.fb.body = fields.Body
	m.fb.action = string(ActionSend)
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the compose screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
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
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

func (m *Model) handleSubmit() tea.Cmd {
	submitted := SubmittedMsg{
		Action: Action(m.fb.action),
		Fields: mailbox.DraftFields{
			Recipient: m.fb.recipient,
			Subject:   m.fb.subject,
			Body:      m.fb.body,
		},
		DraftID: m.draftID,
	}
	return func() tea.Msg { return submitted }
}

// View renders the compose screen.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New message"
	if m.draftID != 0 {
		titleText = "Edit draft"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(titleStyle.Render(titleText) + "\n" + m.form.View())
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("To").
				Placeholder("recipient@example.com").
				Value(&m.fb.recipient).
				Validate(validateEmail),
			huh.NewInput().
				Title("Subject").
				Value(&m.fb.subject).
				Validate(validateRequired("Subject")),
			huh.NewText().
				Title("Body").
				Value(&m.fb.body).
				Validate(validateRequired("Body")),
			huh.NewSelect[string]().
				Title("Action").
				Options(
					huh.NewOption("Send now", string(ActionSend)),
					huh.NewOption("Save as draft", string(ActionSaveDraft)),
				).
				Value(&m.fb.action),
		),
	).WithWidth(m.formWidth())
}

func (m *Model) formWidth() int {
	w := m.width - 8
	if w > 80 {
		w = 80
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
