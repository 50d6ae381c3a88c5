package app

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/webmail/internal/api"
	"github.com/nhle/webmail/internal/endpoint"
	"github.com/nhle/webmail/internal/mailbox"
	"github.com/nhle/webmail/internal/model"
	"github.com/nhle/webmail/internal/session"
	"github.com/nhle/webmail/internal/ui"
	"github.com/nhle/webmail/internal/ui/account"
	"github.com/nhle/webmail/internal/ui/compose"
	"github.com/nhle/webmail/internal/ui/login"
	"github.com/nhle/webmail/internal/ui/maillist"
	"github.com/nhle/webmail/internal/ui/mailview"
	"github.com/nhle/webmail/internal/ui/settingsform"
)

// loginResultMsg carries the outcome of a login or register attempt.
type loginResultMsg struct {
	register bool
	err      error
}

// mailboxLoadedMsg is sent after both collections have been fetched.
type mailboxLoadedMsg struct {
	err error
}

// mailboxChangedMsg signals that the local cache changed without a full
// reload, such as a read-state flip.
type mailboxChangedMsg struct{}

// sendResultMsg carries the outcome of sending a message.
type sendResultMsg struct {
	err error
}

// draftSavedMsg carries the outcome of a draft create or update.
type draftSavedMsg struct {
	draft *model.Draft
	err   error
}

// draftLoadedMsg carries a freshly fetched draft for editing.
type draftLoadedMsg struct {
	draft *model.Draft
	err   error
}

// draftDeletedMsg carries the outcome of a draft deletion.
type draftDeletedMsg struct {
	err error
}

// accountUpdatedMsg carries the outcome of a profile update.
type accountUpdatedMsg struct {
	err error
}

// accountDeletedMsg carries the outcome of an account deletion. The local
// session is gone either way.
type accountDeletedMsg struct {
	err error
}

// settingsSavedMsg carries the outcome of persisting endpoint settings.
type settingsSavedMsg struct {
	err error
}

// loggedOutMsg signals that the session has ended.
type loggedOutMsg struct{}

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewMailList
	ViewMailView
	ViewCompose
	ViewSettings
	ViewAccount
)

// Model is the root Bubble Tea model that manages view routing, layout,
// and access to the session and mailbox state.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *KeyMap

	endpoint *endpoint.Config
	session  *session.Manager
	mailbox  *mailbox.Store

	loginView    login.Model
	mailList     maillist.Model
	mailView     mailview.Model
	composeView  compose.Model
	settingsView settingsform.Model
	accountView  account.Model

	ready   bool
	busy    bool
	errText string

	initCmd tea.Cmd
}

// New creates the root application model. The session must already be
// restored (or not) by the caller; the first view follows from its state.
// The initial view's form is started here so that Init, which runs on a
// copy, does not have to mutate the model.
func New(ep *endpoint.Config, sess *session.Manager, box *mailbox.Store) Model {
	keys := DefaultKeyMap()

	m := Model{
		currentView:  ViewLogin,
		keys:         keys,
		endpoint:     ep,
		session:      sess,
		mailbox:      box,
		loginView:    login.New(80, 24),
		mailList:     maillist.New(keys, 80, 24),
		mailView:     mailview.New(80, 24),
		composeView:  compose.New(80, 24),
		settingsView: settingsform.New(80, 24),
		accountView:  account.New(80, 24),
	}

	switch {
	case sess.Authenticated():
		m.currentView = ViewMailList
		m.initCmd = tea.Batch(m.loadMailbox(), m.refreshIdentity())
	case !ep.Configured():
		// First run: ask for the server address before anything else.
		m.currentView = ViewSettings
		m.initCmd = m.openSettings()
	default:
		m.initCmd = m.loginView.Start()
	}

	return m
}

// Init returns the command prepared in New.
func (m Model) Init() tea.Cmd {
	return m.initCmd
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w := m.layout.ContentWidth()
		h := m.layout.ContentHeight()
		m.loginView.SetSize(w, h)
		m.mailList.SetSize(w, h)
		m.mailView.SetSize(w, h)
		m.composeView.SetSize(w, h)
		m.settingsView.SetSize(w, h)
		m.accountView.SetSize(w, h)
		// Forward to the active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case login.LoginSubmittedMsg:
		m.busy = true
		m.errText = ""
		return m, m.login(msg.Email, msg.Password)

	case login.RegisterSubmittedMsg:
		m.busy = true
		m.errText = ""
		return m, m.register(msg.Name, msg.Email, msg.Password)

	case login.SwitchToSettingsMsg:
		m.previousView = m.currentView
		m.currentView = ViewSettings
		return m, m.openSettings()

	case loginResultMsg:
		m.busy = false
		if msg.err != nil {
			m.loginView.SetError(msg.err.Error())
			return m, nil
		}
		if msg.register {
			// Registration leaves the user anonymous; back to login.
			m.loginView.SetError("")
			return m, m.loginView.Start()
		}
		m.currentView = ViewMailList
		return m, m.loadMailbox()

	case mailboxLoadedMsg:
		m.busy = false
		if msg.err != nil {
			// A rejected token on any authenticated fetch destroys the
			// credential; the server already considers it invalid.
			if api.IsAuthError(msg.err) {
				m.session.Invalidate()
			}
			if !m.session.Authenticated() {
				m.currentView = ViewLogin
				cmd := m.loginView.Start()
				m.loginView.SetError(msg.err.Error())
				return m, cmd
			}
			m.errText = msg.err.Error()
			return m, nil
		}
		m.errText = ""
		return m, m.syncListItems()

	case mailboxChangedMsg:
		return m, m.syncListItems()

	case maillist.SelectedMessageMsg:
		message, ok := m.mailbox.MessageByID(msg.ID)
		if !ok {
			return m, nil
		}
		m.previousView = m.currentView
		m.currentView = ViewMailView
		m.mailView.SetMessage(message)
		// Only the recipient acknowledges a read, and only once.
		if m.mailList.Folder() == maillist.FolderInbox && !message.Read() {
			return m, m.markRead(message.ID)
		}
		return m, nil

	case maillist.SelectedDraftMsg:
		m.busy = true
		return m, m.loadDraft(msg.ID)

	case maillist.DeleteDraftMsg:
		return m, m.deleteDraft(msg.ID)

	case draftLoadedMsg:
		m.busy = false
		if msg.err != nil {
			m.errText = msg.err.Error()
			// The draft may have vanished server-side; resync the list.
			return m, m.loadMailbox()
		}
		m.previousView = m.currentView
		m.currentView = ViewCompose
		return m, m.composeView.StartDraft(*msg.draft)

	case draftDeletedMsg:
		if msg.err != nil {
			m.errText = msg.err.Error()
			return m, nil
		}
		m.errText = ""
		return m, m.loadMailbox()

	case mailview.BackMsg:
		m.currentView = ViewMailList
		return m, m.syncListItems()

	case mailview.ReplyMsg:
		m.previousView = m.currentView
		m.currentView = ViewCompose
		return m, m.composeView.StartReply(mailbox.BuildReplyDraft(msg.Message))

	case compose.SubmittedMsg:
		m.busy = true
		m.errText = ""
		if msg.Action == compose.ActionSend {
			return m, m.send(msg.Fields, msg.DraftID)
		}
		return m, m.saveDraft(msg.Fields, msg.DraftID)

	case compose.CancelMsg:
		// A reply cancelled from the message view goes back there.
		m.currentView = m.previousView
		return m, m.syncListItems()

	case sendResultMsg:
		m.busy = false
		if msg.err != nil {
			m.errText = msg.err.Error()
		}
		m.currentView = ViewMailList
		return m, m.syncListItems()

	case draftSavedMsg:
		m.busy = false
		if msg.err != nil {
			m.errText = msg.err.Error()
		} else if msg.draft != nil {
			m.composeView.PromoteToDraft(msg.draft.ID)
		}
		m.currentView = ViewMailList
		return m, m.syncListItems()

	case settingsform.SubmittedMsg:
		m.busy = true
		return m, m.saveSettings(msg.Settings)

	case settingsform.CancelMsg:
		return m.leaveSettings()

	case settingsSavedMsg:
		m.busy = false
		if msg.err != nil {
			m.errText = msg.err.Error()
			return m, m.openSettings()
		}
		m.errText = ""
		// Changing the endpoint invalidates any session.
		if !m.session.Authenticated() {
			m.currentView = ViewLogin
			return m, m.loginView.Start()
		}
		return m.leaveSettings()

	case account.UpdateSubmittedMsg:
		m.busy = true
		return m, m.updateAccount(msg.Name, msg.Password)

	case account.DeleteConfirmedMsg:
		m.busy = true
		return m, m.deleteAccount()

	case account.CancelMsg:
		m.currentView = ViewMailList
		return m, m.syncListItems()

	case accountUpdatedMsg:
		m.busy = false
		if msg.err != nil {
			m.accountView.SetError(msg.err.Error())
			return m, nil
		}
		m.currentView = ViewMailList
		return m, m.syncListItems()

	case accountDeletedMsg:
		m.busy = false
		m.currentView = ViewLogin
		cmd := m.loginView.Start()
		if msg.err != nil {
			m.loginView.SetError(msg.err.Error())
		}
		return m, cmd

	case loggedOutMsg:
		m.busy = false
		m.currentView = ViewLogin
		m.errText = ""
		return m, m.loginView.Start()

	case tea.KeyMsg:
		if cmd, handled := m.handleGlobalKey(msg); handled {
			return m, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that act on the mail list regardless of
// the focused widget.
func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return tea.Quit, true
	}

	if m.currentView != ViewMailList {
		return nil, false
	}

	switch msg.String() {
	case "q":
		return tea.Quit, true
	case "tab":
		m.mailList.NextFolder()
		return m.syncListItems(), true
	case "n":
		m.previousView = m.currentView
		m.currentView = ViewCompose
		return m.composeView.StartNew(), true
	case "R":
		return m.loadMailbox(), true
	case "s":
		m.previousView = m.currentView
		m.currentView = ViewSettings
		return m.openSettings(), true
	case "a":
		u := m.session.User()
		if u == nil {
			return nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewAccount
		return m.accountView.Start(*u), true
	case "ctrl+l":
		return m.logout(), true
	}

	return nil, false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewMailList:
		m.mailList, cmd = m.mailList.Update(msg)
	case ViewMailView:
		m.mailView, cmd = m.mailView.Update(msg)
	case ViewCompose:
		m.composeView, cmd = m.composeView.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	case ViewAccount:
		m.accountView, cmd = m.accountView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Webmail", m.sessionInfo())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints(), m.errText)

	return m.layout.RenderWithFrame(header, content, statusBar)
}

func (m Model) renderContent() string {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewMailList:
		return m.mailList.View()
	case ViewMailView:
		return m.mailView.View()
	case ViewCompose:
		return m.composeView.View()
	case ViewSettings:
		return m.settingsView.View()
	case ViewAccount:
		return m.accountView.View()
	default:
		return ""
	}
}

// sessionInfo returns the header's right-hand indicator: who is signed in
// and which server the client talks to.
func (m Model) sessionInfo() string {
	settings := m.endpoint.Settings()
	server := settings.Host + ":" + settings.Port

	if u := m.session.User(); u != nil {
		return fmt.Sprintf("%s @ %s", u.Email, server)
	}
	if m.session.Authenticated() {
		return "signed in @ " + server
	}
	return server
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.busy {
		return "working..."
	}

	switch m.currentView {
	case ViewLogin:
		return "enter submit | ctrl+r register | ctrl+s server settings"
	case ViewMailView:
		return "esc back | r reply | j/k scroll"
	case ViewCompose:
		return "enter next | esc cancel"
	case ViewSettings:
		return "enter save | esc back"
	case ViewAccount:
		return "enter save | ctrl+d delete account | esc back"
	default:
		return "q quit | tab folder | n compose | R refresh | s settings | a account | ctrl+l sign out"
	}
}

// syncListItems pushes the active folder's slice of the cache into the list.
func (m *Model) syncListItems() tea.Cmd {
	email := ""
	if u := m.session.User(); u != nil {
		email = u.Email
	}

	var messages []model.Message
	switch m.mailList.Folder() {
	case maillist.FolderSent:
		messages = m.mailbox.Sent(email)
	case maillist.FolderInbox:
		messages = m.mailbox.Inbox(email)
	}

	return m.mailList.SetItems(messages, m.mailbox.Drafts())
}

func (m Model) login(email, password string) tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		err := sess.Login(context.Background(), email, password)
		return loginResultMsg{err: err}
	}
}

func (m Model) register(name, email, password string) tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		err := sess.Register(context.Background(), name, email, password)
		return loginResultMsg{register: true, err: err}
	}
}

func (m Model) logout() tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		sess.Logout(context.Background())
		return loggedOutMsg{}
	}
}

// refreshIdentity re-fetches the profile after a restored session. A
// rejected token ends the session inside RefreshIdentity, and the UI must
// follow it to the login screen even if a concurrent mailbox load already
// rendered the list.
func (m Model) refreshIdentity() tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		_ = sess.RefreshIdentity(context.Background())
		if !sess.Authenticated() {
			return loggedOutMsg{}
		}
		return mailboxChangedMsg{}
	}
}

func (m Model) loadMailbox() tea.Cmd {
	box := m.mailbox
	return func() tea.Msg {
		if err := box.FetchMessages(context.Background()); err != nil {
			return mailboxLoadedMsg{err: err}
		}
		if err := box.FetchDrafts(context.Background()); err != nil {
			return mailboxLoadedMsg{err: err}
		}
		return mailboxLoadedMsg{}
	}
}

func (m Model) markRead(id int) tea.Cmd {
	box := m.mailbox
	return func() tea.Msg {
		box.MarkRead(context.Background(), id)
		return mailboxChangedMsg{}
	}
}

// send dispatches the composed message. Sending from a saved draft first
// pushes the form's current fields to the draft, so what goes out is what
// the user sees, not the stored copy.
func (m Model) send(fields mailbox.DraftFields, draftID int) tea.Cmd {
	box := m.mailbox
	return func() tea.Msg {
		if draftID != 0 {
			patch := mailbox.DraftPatch{
				Recipient: &fields.Recipient,
				Subject:   &fields.Subject,
				Body:      &fields.Body,
			}
			if err := box.UpdateDraft(context.Background(), draftID, patch); err != nil {
				return sendResultMsg{err: err}
			}
			return sendResultMsg{err: box.SendFromDraft(context.Background(), draftID)}
		}
		return sendResultMsg{err: box.Send(context.Background(), fields)}
	}
}

func (m Model) saveDraft(fields mailbox.DraftFields, draftID int) tea.Cmd {
	box := m.mailbox
	return func() tea.Msg {
		if draftID != 0 {
			patch := mailbox.DraftPatch{
				Recipient: &fields.Recipient,
				Subject:   &fields.Subject,
				Body:      &fields.Body,
			}
			err := box.UpdateDraft(context.Background(), draftID, patch)
			return draftSavedMsg{err: err}
		}
		draft, err := box.SaveDraft(context.Background(), fields)
		return draftSavedMsg{draft: draft, err: err}
	}
}

func (m Model) loadDraft(id int) tea.Cmd {
	box := m.mailbox
	return func() tea.Msg {
		draft, err := box.GetDraft(context.Background(), id)
		return draftLoadedMsg{draft: draft, err: err}
	}
}

func (m Model) deleteDraft(id int) tea.Cmd {
	box := m.mailbox
	return func() tea.Msg {
		err := box.DeleteDraft(context.Background(), id)
		return draftDeletedMsg{err: err}
	}
}

func (m *Model) openSettings() tea.Cmd {
	return m.settingsView.Start(m.endpoint.Settings())
}

// leaveSettings returns to wherever the user came from, falling back to
// the login screen while anonymous.
func (m Model) leaveSettings() (tea.Model, tea.Cmd) {
	if !m.session.Authenticated() {
		m.currentView = ViewLogin
		return m, m.loginView.Start()
	}
	m.currentView = ViewMailList
	return m, m.syncListItems()
}

func (m Model) saveSettings(s model.EndpointSettings) tea.Cmd {
	ep := m.endpoint
	return func() tea.Msg {
		err := ep.Save(s)
		return settingsSavedMsg{err: err}
	}
}

func (m Model) updateAccount(name, password string) tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		err := sess.UpdateAccount(context.Background(), name, password)
		return accountUpdatedMsg{err: err}
	}
}

func (m Model) deleteAccount() tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		err := sess.DeleteAccount(context.Background())
		return accountDeletedMsg{err: err}
	}
}
