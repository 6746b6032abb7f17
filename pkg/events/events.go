// Package events defines template lifecycle notifications.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every template lifecycle event.
const Topic = "directory.templates"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	TemplateSubmittedEvent EventType = "template.submitted"
	TemplatePublishedEvent EventType = "template.published"
	TemplateApprovedEvent  EventType = "template.approved"
	TemplateRejectedEvent  EventType = "template.rejected"
)

var ErrUnknownEventType = errors.New("unknown event type")

// Event is anything that can be published on the bus.
type Event interface {
	GetType() EventType
}

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	TemplateID string         `json:"template_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, templateID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		TemplateID: templateID,
	}
}

// TemplateSubmitted is emitted when a community submission enters review.
type TemplateSubmitted struct {
	BaseEvent

	Title              string   `json:"title"`
	ContributorEmail   string   `json:"contributor_email,omitempty"`
	WorkflowHash       string   `json:"workflow_hash"`
	SimilarTemplateIDs []string `json:"similar_template_ids,omitempty"`
}

func (e TemplateSubmitted) GetType() EventType {
	return TemplateSubmittedEvent
}

// TemplatePublished is emitted when a developer upload goes live directly.
type TemplatePublished struct {
	BaseEvent

	Title  string `json:"title"`
	Slug   string `json:"slug"`
	Source string `json:"source"`
}

func (e TemplatePublished) GetType() EventType {
	return TemplatePublishedEvent
}

type TemplateApproved struct {
	BaseEvent

	Title string `json:"title"`
	Slug  string `json:"slug"`
}

func (e TemplateApproved) GetType() EventType {
	return TemplateApprovedEvent
}

type TemplateRejected struct {
	BaseEvent

	Title string `json:"title"`
}

func (e TemplateRejected) GetType() EventType {
	return TemplateRejectedEvent
}

// Decode unmarshals a payload into the concrete event for its type.
func Decode(eventType EventType, payload []byte) (Event, error) {
	var event Event

	switch eventType {
	case TemplateSubmittedEvent:
		event = &TemplateSubmitted{}
	case TemplatePublishedEvent:
		event = &TemplatePublished{}
	case TemplateApprovedEvent:
		event = &TemplateApproved{}
	case TemplateRejectedEvent:
		event = &TemplateRejected{}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, eventType)
	}

	err := json.Unmarshal(payload, event)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s event: %w", eventType, err)
	}

	return event, nil
}
