package mailbox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/webmail/internal/model"
)

func TestBuildReplyDraft(t *testing.T) {
	original := model.Message{
		Subject:   "Hi",
		Sender:    "a@x.com",
		Recipient: "b@x.com",
		Body:      "Hello",
		SentAt:    "2024-01-01",
	}

	reply := BuildReplyDraft(original)

	assert.Equal(t, "a@x.com", reply.Recipient)
	assert.Equal(t, "Re: Hi", reply.Subject)

	assert.True(t, strings.HasPrefix(reply.Body, "\n\n"),
		"body starts with blank lines for the reply text")
	assert.Contains(t, reply.Body, "From: a@x.com")
	assert.Contains(t, reply.Body, "To: b@x.com")
	assert.Contains(t, reply.Body, "Date: 2024-01-01")
	assert.Contains(t, reply.Body, "Subject: Hi")
	assert.Contains(t, reply.Body, "Hello")
}
