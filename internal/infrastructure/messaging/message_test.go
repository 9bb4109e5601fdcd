package messaging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateBackoff(t *testing.T) {
	cfg := DefaultBackoffConfig()

	assert.Equal(t, time.Second, cfg.CalculateBackoff(0))
	assert.Equal(t, 2*time.Second, cfg.CalculateBackoff(1))
	assert.Equal(t, 4*time.Second, cfg.CalculateBackoff(2))
	assert.Equal(t, 8*time.Second, cfg.CalculateBackoff(3))
}

func TestCalculateBackoff_Capped(t *testing.T) {
	cfg := DefaultBackoffConfig()

	assert.Equal(t, time.Minute, cfg.CalculateBackoff(20))
}

func TestMessage_Payload(t *testing.T) {
	job := &DocumentIndexMessage{
		DocumentID:     "doc-1",
		UserID:         42,
		OrganizationID: 7,
		Filename:       "договор.pdf",
		StoragePath:    "/data/doc-1",
	}

	msg, err := NewMessage(job.DocumentID, TypeDocumentIndex, job.UserID, job.OrganizationID, job)
	assert.NoError(t, err)
	assert.Equal(t, "doc-1", msg.ID)
	assert.Equal(t, int64(42), msg.UserID)

	var decoded DocumentIndexMessage
	assert.NoError(t, msg.UnmarshalPayload(&decoded))
	assert.Equal(t, *job, decoded)
}

func TestMessage_Metadata(t *testing.T) {
	msg := &Message{}
	msg.SetMetadata("reindex", "true")

	assert.Equal(t, "true", msg.GetMetadata("reindex"))
	assert.Equal(t, "", msg.GetMetadata("missing"))
}

func TestStream_DLQ(t *testing.T) {
	assert.Equal(t, "dlq:stream:document:index", StreamDocumentIndex.DLQStream())
}
