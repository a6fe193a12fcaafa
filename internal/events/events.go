package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Topics published by the service.
const (
	TopicSubmissionReceived = "lms.submission.received"
	TopicSubmissionGraded   = "lms.submission.graded"
	TopicEnrollmentCreated  = "lms.enrollment.created"
	TopicForumPostCreated   = "lms.forum.post.created"
)

// Event is the envelope every published message shares.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// NewEvent wraps a payload in the standard envelope.
func NewEvent(eventType string, payload interface{}) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	return &Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    data,
	}, nil
}

// SubmissionReceivedPayload announces a new submission to interested
// consumers (notification fan-out, analytics).
type SubmissionReceivedPayload struct {
	SubmissionID uint   `json:"submission_id"`
	AssignmentID uint   `json:"assignment_id"`
	CourseID     uint   `json:"course_id"`
	StudentID    string `json:"student_id"`
}

type SubmissionGradedPayload struct {
	SubmissionID uint    `json:"submission_id"`
	AssignmentID uint    `json:"assignment_id"`
	StudentID    string  `json:"student_id"`
	Grade        float64 `json:"grade"`
	MaxPoints    int     `json:"max_points"`
	GradedBy     string  `json:"graded_by"`
}

type EnrollmentCreatedPayload struct {
	EnrollmentID uint   `json:"enrollment_id"`
	CourseID     uint   `json:"course_id"`
	StudentID    string `json:"student_id"`
}

type ForumPostCreatedPayload struct {
	PostID   uint   `json:"post_id"`
	ThreadID uint   `json:"thread_id"`
	AuthorID string `json:"author_id"`
	ParentID *uint  `json:"parent_id,omitempty"`
}

// EventPublisher publishes domain events to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event *Event) error
	Close() error
}
