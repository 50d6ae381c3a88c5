package model

// MessageStatus is the server-side read state of a message. The wire values
// are the backend's own ("enviado" = sent, "lido" = read).
type MessageStatus string

const (
	StatusSent MessageStatus = "enviado"
	StatusRead MessageStatus = "lido"
)

// Message is a single email as held by the server. The client keeps a
// read-only projection of it, except for Status, which may be advanced
// locally from sent to read ahead of server confirmation.
type Message struct {
	ID        int           `json:"emailId"`
	Subject   string        `json:"assunto"`
	Body      string        `json:"corpo"`
	Sender    string        `json:"emailRemetente"`
	Recipient string        `json:"emailDestinatario"`
	Status    MessageStatus `json:"status"`
	SentAt    string        `json:"dataEnvio"`
}

// Read reports whether the message has been read.
func (m Message) Read() bool {
	return m.Status == StatusRead
}

// Draft is an unsent message persisted server-side. A draft that has not
// been saved yet has no ID and exists only in the editing session.
type Draft struct {
	ID        int    `json:"rascunhoId"`
	Subject   string `json:"assunto"`
	Body      string `json:"corpo"`
	Recipient string `json:"emailDestinatario"`
}
