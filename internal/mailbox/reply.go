package mailbox

import (
	"fmt"
	"strings"

	"github.com/nhle/webmail/internal/model"
)

// BuildReplyDraft produces the draft fields for a reply to the given
// message: addressed back to the sender, subject prefixed with "Re: ", and
// the original quoted below blank lines left for the reply text. It does
// not touch the store; persisting the draft is the caller's call.
func BuildReplyDraft(original model.Message) DraftFields {
	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString("---- Original message ----\n")
	fmt.Fprintf(&b, "From: %s\n", original.Sender)
	fmt.Fprintf(&b, "To: %s\n", original.Recipient)
	fmt.Fprintf(&b, "Date: %s\n", original.SentAt)
	fmt.Fprintf(&b, "Subject: %s\n", original.Subject)
	b.WriteString("\n")
	b.WriteString(original.Body)

	return DraftFields{
		Recipient: original.Sender,
		Subject:   "Re: " + original.Subject,
		Body:      b.String(),
	}
}
