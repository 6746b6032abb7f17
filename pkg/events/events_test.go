package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	original := TemplateSubmitted{
		BaseEvent:          NewBaseEvent(TemplateSubmittedEvent, "template-123"),
		Title:              "Slack to Notion Sync",
		ContributorEmail:   "dev@example.com",
		WorkflowHash:       "abc",
		SimilarTemplateIDs: []string{"template-9"},
	}

	payload, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"template_id":"template-123"`)
	assert.Contains(t, string(payload), `"type":"template.submitted"`)

	decoded, err := Decode(TemplateSubmittedEvent, payload)
	require.NoError(t, err)

	submitted, ok := decoded.(*TemplateSubmitted)
	require.True(t, ok)
	assert.Equal(t, original.Title, submitted.Title)
	assert.Equal(t, original.SimilarTemplateIDs, submitted.SimilarTemplateIDs)
	assert.Equal(t, TemplateSubmittedEvent, submitted.GetType())
}

func TestDecode_AllTypes(t *testing.T) {
	tests := []struct {
		eventType EventType
		event     Event
	}{
		{TemplateSubmittedEvent, TemplateSubmitted{}},
		{TemplatePublishedEvent, TemplatePublished{}},
		{TemplateApprovedEvent, TemplateApproved{}},
		{TemplateRejectedEvent, TemplateRejected{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.eventType), func(t *testing.T) {
			assert.Equal(t, tt.eventType, tt.event.GetType())

			decoded, err := Decode(tt.eventType, []byte(`{"template_id":"x"}`))
			require.NoError(t, err)
			assert.Equal(t, tt.eventType, decoded.GetType())
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode("template.unknown", []byte(`{}`))
	require.ErrorIs(t, err, ErrUnknownEventType)

	_, err = Decode(TemplateApprovedEvent, []byte(`not json`))
	assert.Error(t, err)
}

func TestNewBaseEvent(t *testing.T) {
	event := NewBaseEvent(TemplateApprovedEvent, "id-1")

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, TemplateApprovedEvent, event.Type)
	assert.Equal(t, "id-1", event.TemplateID)
	assert.False(t, event.Timestamp.IsZero())
}
