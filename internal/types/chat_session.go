package types

import (
	"fmt"
	"time"
)

// Session identifies a (tenant, user) conversation. UserKey may be empty, in
// which case the whole tenant shares one negotiation.
type Session struct {
	TenantID string `json:"hotel_id"`
	UserKey  string `json:"session_id,omitempty"`
}

// Key is a stable string form used for locks and cache keys.
func (s Session) Key() string {
	return fmt.Sprintf("%s/%s", s.TenantID, s.UserKey)
}

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleBot       MessageRole = "bot"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

type ChatMessage struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

type ChatRequest struct {
	Messages     []ChatMessage `json:"messages"`
	HotelID      string        `json:"hotel_id"`
	SessionID    string        `json:"session_id,omitempty"`
	UserLocation *string       `json:"user_location,omitempty"`
}

func (r ChatRequest) Session() Session {
	return Session{TenantID: r.HotelID, UserKey: r.SessionID}
}

type ChatResponse struct {
	Response string `json:"response"`
}

type ResetRequest struct {
	HotelID   string `json:"hotel_id"`
	SessionID string `json:"session_id,omitempty"`
}

func (r ResetRequest) Session() Session {
	return Session{TenantID: r.HotelID, UserKey: r.SessionID}
}

type TranslationRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"target_language"`
}

type TranslationResponse struct {
	TranslatedText string `json:"translated_text"`
}

type TTSRequest struct {
	Text string `json:"text"`
}

type TranscriptionResponse struct {
	Text string `json:"text"`
}

// ConversationEntry is one persisted line of a chat transcript.
type ConversationEntry struct {
	ID        int64       `json:"id"`
	Session   Session     `json:"session"`
	Role      MessageRole `json:"role"`
	Message   string      `json:"message"`
	Timestamp time.Time   `json:"timestamp"`
}
