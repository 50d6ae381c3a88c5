package maillist

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/webmail/internal/keys"
	"github.com/nhle/webmail/internal/model"
	"github.com/nhle/webmail/internal/theme"
)

// Folder identifies which mailbox view is active.
type Folder int

const (
	FolderInbox Folder = iota
	FolderSent
	FolderDrafts
)

func (f Folder) String() string {
	switch f {
	case FolderInbox:
		return "Inbox"
	case FolderSent:
		return "Sent"
	case FolderDrafts:
		return "Drafts"
	default:
		return "?"
	}
}

// SelectedMessageMsg is sent when the user opens a message.
type SelectedMessageMsg struct {
	ID int
}

// SelectedDraftMsg is sent when the user opens a draft for editing.
type SelectedDraftMsg struct {
	ID int
}

// DeleteDraftMsg is sent when the user deletes the selected draft.
type DeleteDraftMsg struct {
	ID int
}

// MessageItem wraps a model.Message for the bubbles list.
type MessageItem struct {
	Message model.Message
	Sent    bool
}

func (i MessageItem) FilterValue() string { return i.Message.Subject }

func (i MessageItem) Title() string {
	subject := i.Message.Subject
	if subject == "" {
		subject = "(no subject)"
	}
	if !i.Sent && !i.Message.Read() {
		return theme.UnreadStyle.Render("● " + subject)
	}
	return subject
}

func (i MessageItem) Description() string {
	who := i.Message.Sender
	if i.Sent {
		who = "to " + i.Message.Recipient
	}
	return fmt.Sprintf("%s | %s", who, i.Message.SentAt)
}

// DraftItem wraps a model.Draft for the bubbles list.
type DraftItem struct {
	Draft model.Draft
}

func (i DraftItem) FilterValue() string { return i.Draft.Subject }

func (i DraftItem) Title() string {
	if i.Draft.Subject == "" {
		return "(no subject)"
	}
	return i.Draft.Subject
}

func (i DraftItem) Description() string {
	return "to " + i.Draft.Recipient
}

// Model is the folder list view.
type Model struct {
	list   list.Model
	keys   *keys.KeyMap
	folder Folder
	width  int
	height int
}

// New creates the mail list model.
func New(k *keys.KeyMap, width, height int) Model {
	delegate := list.NewDefaultDelegate()
	l := list.New([]list.Item{}, delegate, width, height-2)
	l.Title = FolderInbox.String()
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		keys:   k,
		folder: FolderInbox,
		width:  width,
		height: height,
	}
}

// Folder returns the active folder.
func (m Model) Folder() Folder {
	return m.folder
}

// NextFolder cycles inbox → sent → drafts → inbox.
func (m *Model) NextFolder() {
	m.folder = (m.folder + 1) % 3
	m.list.Title = m.folder.String()
}

// SetItems replaces the visible collection for the active folder.
func (m *Model) SetItems(messages []model.Message, drafts []model.Draft) tea.Cmd {
	var items []list.Item
	switch m.folder {
	case FolderDrafts:
		for _, d := range drafts {
			items = append(items, DraftItem{Draft: d})
		}
	case FolderSent:
		for _, msg := range messages {
			items = append(items, MessageItem{Message: msg, Sent: true})
		}
	default:
		for _, msg := range messages {
			items = append(items, MessageItem{Message: msg})
		}
	}
	return m.list.SetItems(items)
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}

// Update handles messages for the list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && !m.list.SettingFilter() {
		switch key.String() {
		case "enter":
			switch item := m.list.SelectedItem().(type) {
			case MessageItem:
				id := item.Message.ID
				return m, func() tea.Msg { return SelectedMessageMsg{ID: id} }
			case DraftItem:
				id := item.Draft.ID
				return m, func() tea.Msg { return SelectedDraftMsg{ID: id} }
			}
			return m, nil
		case "d":
			if item, ok := m.list.SelectedItem().(DraftItem); ok && m.folder == FolderDrafts {
				id := item.Draft.ID
				return m, func() tea.Msg { return DeleteDraftMsg{ID: id} }
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the folder tabs and the list.
func (m Model) View() string {
	tabs := ""
	for f := FolderInbox; f <= FolderDrafts; f++ {
		tabs += theme.FolderStyle(f == m.folder).Render(f.String())
	}
	return tabs + "\n" + m.list.View()
}
