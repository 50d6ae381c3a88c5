package api

import "github.com/nhle/webmail/internal/model"

// Request and response records for every backend endpoint. The JSON field
// names are the backend's own; nothing outside this package touches raw
// payloads.

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"senha"`
}

// LoginResponse is the body returned by POST /login. User is optional; when
// absent the caller fetches the identity separately.
type LoginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user,omitempty"`
}

// RegisterRequest is the body of POST /usuarios.
type RegisterRequest struct {
	Name     string `json:"nome"`
	Email    string `json:"email"`
	Password string `json:"senha"`
}

// UpdateAccountRequest is the body of PUT /usuarios. The name is always
// sent; the password only when the user typed a new one.
type UpdateAccountRequest struct {
	Name     string `json:"nome"`
	Password string `json:"senha,omitempty"`
}

// SendMessageRequest is the body of POST /emails.
type SendMessageRequest struct {
	Subject   string `json:"assunto"`
	Body      string `json:"corpo"`
	Recipient string `json:"emailDestinatario"`
}

// MessageListResponse is the envelope of GET /emails.
type MessageListResponse struct {
	Messages []model.Message `json:"emails"`
}

// DraftRequest is the body of POST /rascunhos.
type DraftRequest struct {
	Subject   string `json:"assunto"`
	Body      string `json:"corpo"`
	Recipient string `json:"emailDestinatario"`
}

// DraftPatchRequest is the body of PUT /rascunhos/{id}. Nil fields are
// omitted so the server only updates what was provided.
type DraftPatchRequest struct {
	Subject   *string `json:"assunto,omitempty"`
	Body      *string `json:"corpo,omitempty"`
	Recipient *string `json:"emailDestinatario,omitempty"`
}

// DraftListResponse is the envelope of GET /rascunhos.
type DraftListResponse struct {
	Drafts []model.Draft `json:"rascunhos"`
}

// DraftResponse is the envelope wrapping a single draft.
type DraftResponse struct {
	Draft model.Draft `json:"rascunho"`
}

// errorEnvelope is the error body shape shared by all endpoints.
type errorEnvelope struct {
	Message string `json:"message"`
}
