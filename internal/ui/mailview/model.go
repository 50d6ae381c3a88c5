package mailview

import (
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/webmail/internal/model"
	"github.com/nhle/webmail/internal/theme"
)

// BackMsg is sent when the user leaves the message view.
type BackMsg struct{}

// ReplyMsg asks the application to open a reply draft for the message.
type ReplyMsg struct {
	Message model.Message
}

// Model renders a single message.
type Model struct {
	viewport viewport.Model
	message  model.Message
	width    int
	height   int
}

// New creates the message view model.
func New(width, height int) Model {
	vp := viewport.New(width, height-2)
	return Model{viewport: vp, width: width, height: height}
}

// SetMessage loads a message into the view.
func (m *Model) SetMessage(msg model.Message) {
	m.message = msg
	m.viewport.SetContent(m.renderMessage())
	m.viewport.GotoTop()
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.viewport.SetContent(m.renderMessage())
}

// Update handles messages for the message view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			return m, func() tea.Msg { return BackMsg{} }
		case "r":
			message := m.message
			return m, func() tea.Msg { return ReplyMsg{Message: message} }
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the message panel.
func (m Model) View() string {
	return m.viewport.View() + "\n" +
		theme.HelpStyle.Render("esc back | r reply | j/k scroll")
}

func (m Model) renderMessage() string {
	label := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGray)

	header := fmt.Sprintf(
		"%s %s\n%s %s\n%s %s\n%s %s",
		label.Render("From:"), m.message.Sender,
		label.Render("To:"), m.message.Recipient,
		label.Render("Date:"), m.message.SentAt,
		label.Render("Subject:"), m.message.Subject,
	)

	width := m.width - 6
	if width < 20 {
		width = 20
	}

	return theme.MessagePanelStyle.Width(width).Render(
		header + "\n\n" + m.message.Body,
	)
}
