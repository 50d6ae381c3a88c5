// Package mailbox holds the local cache of messages and drafts and keeps it
// consistent with the server: every mutating call re-fetches the affected
// collection afterwards, so the cache always reflects the server's view as
// of the last completed operation. The one deliberate exception is the
// optimistic read-state flip in MarkRead.
package mailbox

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nhle/webmail/internal/api"
	"github.com/nhle/webmail/internal/logging"
	"github.com/nhle/webmail/internal/model"
)

// DraftFields are the editable fields of a draft or outgoing message.
type DraftFields struct {
	Recipient string
	Subject   string
	Body      string
}

// DraftPatch is a partial draft update; nil fields are left unchanged
// server-side.
type DraftPatch struct {
	Recipient *string
	Subject   *string
	Body      *string
}

// Store is the in-memory mail state backed by the server. Concurrent
// fetches race last-write-wins by design; callers are expected to
// serialize per view.
type Store struct {
	mu       sync.RWMutex
	client   *api.Client
	messages []model.Message
	drafts   []model.Draft
}

// New creates an empty Store using the given transport.
func New(client *api.Client) *Store {
	return &Store{client: client}
}

// FetchMessages replaces the message collection wholesale with the server's
// current one. A 404 means the user has no messages, not a failure.
func (s *Store) FetchMessages(ctx context.Context) error {
	var resp api.MessageListResponse
	err := s.client.Get(ctx, "/emails", &resp)
	if err != nil && !api.IsNotFound(err) {
		return fetchError(err, "could not load messages")
	}

	s.mu.Lock()
	s.messages = resp.Messages
	if s.messages == nil {
		s.messages = []model.Message{}
	}
	s.mu.Unlock()
	return nil
}

// FetchDrafts replaces the draft collection wholesale with the server's
// current one. A 404 means the user has no drafts.
func (s *Store) FetchDrafts(ctx context.Context) error {
	var resp api.DraftListResponse
	err := s.client.Get(ctx, "/rascunhos", &resp)
	if err != nil && !api.IsNotFound(err) {
		return fetchError(err, "could not load drafts")
	}

	s.mu.Lock()
	s.drafts = resp.Drafts
	if s.drafts == nil {
		s.drafts = []model.Draft{}
	}
	s.mu.Unlock()
	return nil
}

// Messages returns a copy of the cached message collection in the order the
// server last returned it.
func (s *Store) Messages() []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Drafts returns a copy of the cached draft collection.
func (s *Store) Drafts() []model.Draft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Draft, len(s.drafts))
	copy(out, s.drafts)
	return out
}

// MessageByID returns the cached message with the given id, if present.
func (s *Store) MessageByID(id int) (model.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.messages {
		if m.ID == id {
			return m, true
		}
	}
	return model.Message{}, false
}

// Inbox returns the cached messages addressed to the given identity email.
// The partition is derived, never stored: it is recomputed from the current
// collection on every call.
func (s *Store) Inbox(identityEmail string) []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Message
	for _, m := range s.messages {
		if m.Recipient == identityEmail {
			out = append(out, m)
		}
	}
	return out
}

// Sent returns the cached messages sent by the given identity email.
func (s *Store) Sent(identityEmail string) []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Message
	for _, m := range s.messages {
		if m.Sender == identityEmail {
			out = append(out, m)
		}
	}
	return out
}

// Send posts a new message. On success the message collection is
// re-fetched so the sent view includes the new item; on failure no partial
// state is retained.
func (s *Store) Send(ctx context.Context, fields DraftFields) error {
	err := s.client.Post(ctx, "/emails", api.SendMessageRequest{
		Subject:   fields.Subject,
		Body:      fields.Body,
		Recipient: fields.Recipient,
	}, nil)
	if err != nil {
		return mutationError(err, "could not send message")
	}
	return s.FetchMessages(ctx)
}

// SendFromDraft promotes a saved draft into a sent message in a single
// server call, then re-fetches both collections: the draft must disappear
// from drafts and the message appear in sent. The draft id is invalid for
// further draft operations afterwards.
func (s *Store) SendFromDraft(ctx context.Context, draftID int) error {
	err := s.client.Post(ctx, fmt.Sprintf("/emails/%d", draftID), nil, nil)
	if err != nil {
		return mutationError(err, "could not send draft")
	}
	if err := s.FetchMessages(ctx); err != nil {
		return err
	}
	return s.FetchDrafts(ctx)
}

// SaveDraft creates a new draft server-side and returns it with its
// assigned id, so an unsaved editing session can become an
// editing-existing-draft session. The draft collection is re-fetched.
func (s *Store) SaveDraft(ctx context.Context, fields DraftFields) (*model.Draft, error) {
	var resp api.DraftResponse
	err := s.client.Post(ctx, "/rascunhos", api.DraftRequest{
		Subject:   fields.Subject,
		Body:      fields.Body,
		Recipient: fields.Recipient,
	}, &resp)
	if err != nil {
		return nil, mutationError(err, "could not save draft")
	}
	if err := s.FetchDrafts(ctx); err != nil {
		return nil, err
	}
	return &resp.Draft, nil
}

// UpdateDraft applies a partial update to a saved draft, then re-fetches
// the draft collection.
func (s *Store) UpdateDraft(ctx context.Context, id int, patch DraftPatch) error {
	err := s.client.Put(ctx, fmt.Sprintf("/rascunhos/%d", id), api.DraftPatchRequest{
		Subject:   patch.Subject,
		Body:      patch.Body,
		Recipient: patch.Recipient,
	}, nil)
	if err != nil {
		return mutationError(err, "could not update draft")
	}
	return s.FetchDrafts(ctx)
}

// GetDraft fetches a single draft by id. Unlike the list fetches, a 404
// here is a real error: the caller asked for something specific.
func (s *Store) GetDraft(ctx context.Context, id int) (*model.Draft, error) {
	var resp api.DraftResponse
	if err := s.client.Get(ctx, fmt.Sprintf("/rascunhos/%d", id), &resp); err != nil {
		if api.IsNotFound(err) {
			return nil, errors.New("draft not found")
		}
		return nil, fetchError(err, "could not load draft")
	}
	return &resp.Draft, nil
}

// DeleteDraft removes a draft server-side, then re-fetches the draft
// collection.
func (s *Store) DeleteDraft(ctx context.Context, id int) error {
	if err := s.client.Delete(ctx, fmt.Sprintf("/rascunhos/%d", id), nil); err != nil {
		return mutationError(err, "could not delete draft")
	}
	return s.FetchDrafts(ctx)
}

// MarkRead fires the read acknowledgement and optimistically flips the
// local copy to read, whatever the acknowledgement's outcome. A full list
// refresh would visibly delay the read indicator, so a failed
// acknowledgement is logged and the local flip stands. The operation is
// idempotent.
func (s *Store) MarkRead(ctx context.Context, id int) {
	if err := s.client.Get(ctx, fmt.Sprintf("/emails/%d", id), nil); err != nil {
		logging.Log().WithError(err).WithField("message_id", id).
			Warn("read acknowledgement failed")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages[i].Status = model.StatusRead
			return
		}
	}
}

// displayError carries a user-facing message while keeping the underlying
// transport error available to errors.As.
type displayError struct {
	text  string
	cause error
}

func (e *displayError) Error() string { return e.text }
func (e *displayError) Unwrap() error { return e.cause }

// fetchError converts a transport failure on a read path into a
// user-displayable error, leaving the prior in-memory state untouched.
func fetchError(err error, fallback string) error {
	if msg := api.ValidationMessage(err); msg != "" {
		return &displayError{text: msg, cause: err}
	}
	if api.IsAuthError(err) {
		return &displayError{text: "session expired, please log in again", cause: err}
	}
	return &displayError{text: fallback, cause: err}
}

// mutationError converts a transport failure on a write path.
func mutationError(err error, fallback string) error {
	return fetchError(err, fallback)
}
