package dto

import (
	"time"

	"github.com/google/uuid"
)

// TurnRequest is one inbound conversational step. Exactly one of Text,
// Button or Attachment should be set, discriminated by Kind.
type TurnRequest struct {
	ConversationId string         `json:"conversation_id" validate:"required,max=100"`
	Kind           string         `json:"kind" validate:"required,oneof=text button attachment"`
	Text           string         `json:"text,omitempty" validate:"max=4000"`
	Button         string         `json:"button,omitempty" validate:"max=200"`
	Attachment     *AttachmentDTO `json:"attachment,omitempty"`
}

type AttachmentDTO struct {
	FileName   string `json:"file_name" validate:"required,max=255"`
	StorageKey string `json:"storage_key" validate:"required,max=500"`
}

// ButtonDTO is one option the client should render. Rows group buttons
// for two-column keyboards.
type ButtonDTO struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Row   int    `json:"row"`
}

type DocumentResultDTO struct {
	Id          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Category    string    `json:"category"`
	Subtype     string    `json:"subtype"`
	Period      string    `json:"period"`
	Url         string    `json:"url,omitempty"`
}

type TurnResponse struct {
	ConversationId string              `json:"conversation_id"`
	State          string              `json:"state"`
	Intent         string              `json:"intent,omitempty"`
	Reply          string              `json:"reply"`
	Buttons        []ButtonDTO         `json:"buttons,omitempty"`
	Documents      []DocumentResultDTO `json:"documents,omitempty"`
	MoreResults    bool                `json:"more_results,omitempty"`
	Done           bool                `json:"done"`
}

type ResetSessionResponse struct {
	ConversationId string `json:"conversation_id"`
	Cleared        bool   `json:"cleared"`
}

type DocumentUrlResponse struct {
	Id        uuid.UUID `json:"id"`
	Url       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// --- Dialogue Error Types ---

// AccessDeniedError is returned when the acting party has no membership in
// the organization a request is scoped to.
type AccessDeniedError struct {
	Organization string `json:"organization"`
}

func (e *AccessDeniedError) Error() string {
	return "party has no access to the requested organization"
}

// SessionConflictError signals a concurrent turn already holds the
// per-conversation merge lock.
type SessionConflictError struct {
	ConversationId string `json:"conversation_id"`
}

func (e *SessionConflictError) Error() string {
	return "another turn is being processed for this conversation"
}

// OracleUnavailableError wraps a failed language-oracle call. Turns degrade
// to guided mode instead of failing, so this mostly shows up in logs.
type OracleUnavailableError struct {
	Cause string `json:"cause"`
}

func (e *OracleUnavailableError) Error() string {
	return "language oracle unavailable: " + e.Cause
}
