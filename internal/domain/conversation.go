package domain

import (
	"encoding/json"
	"time"
)

// Stage is a step of the booking conversation.
type Stage string

const (
	StageGreet   Stage = "greet"
	StageAmenity Stage = "amenity"
	StageSlot    Stage = "slot"
	StageEmail   Stage = "email"
)

// Stages lists every stage in conversation order.
func Stages() []Stage {
	return []Stage{StageGreet, StageAmenity, StageSlot, StageEmail}
}

func ValidStage(s string) bool {
	switch Stage(s) {
	case StageGreet, StageAmenity, StageSlot, StageEmail:
		return true
	}
	return false
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Turn is one entry of a session transcript.
type Turn struct {
	Role Role      `json:"role"`
	Text string    `json:"message"`
	At   time.Time `json:"at"`
}

// BookingFields are collected one stage at a time and never cleared.
type BookingFields struct {
	Community string `json:"community,omitempty"`
	Amenity   string `json:"amenity,omitempty"`
	Slot      string `json:"slot,omitempty"`
	Email     string `json:"email,omitempty"`
	// Reference is assigned on the first booking attempt so retries after a
	// failed attempt reuse the same booking row.
	Reference string `json:"reference,omitempty"`
}

// Session is the per-conversation state owned by a SessionStore.
type Session struct {
	ID        string        `json:"id"`
	Stage     Stage         `json:"stage"`
	Fields    BookingFields `json:"fields"`
	History   []Turn        `json:"history"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NewSession returns a fresh session at StageGreet.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Stage:     StageGreet,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) AppendTurn(role Role, text string, at time.Time) {
	s.History = append(s.History, Turn{Role: role, Text: text, At: at})
	s.UpdatedAt = at
}

// Clone returns a deep copy safe to hand out while the original keeps changing.
func (s *Session) Clone() *Session {
	c := *s
	c.History = append([]Turn(nil), s.History...)
	return &c
}

type ReplyType string

const (
	ReplyText          ReplyType = "text"
	ReplySlotSelection ReplyType = "slot_selection"
)

// Reply is what the conversation returns for one user message.
// Text replies encode as a bare JSON string; slot selections encode as
// {"type":"slot_selection","message":...,"slots":[...]}.
type Reply struct {
	Type    ReplyType
	Message string
	Slots   []string
}

func TextReply(msg string) *Reply {
	return &Reply{Type: ReplyText, Message: msg}
}

func SlotSelectionReply(msg string, slots []string) *Reply {
	return &Reply{Type: ReplySlotSelection, Message: msg, Slots: slots}
}

type slotSelectionJSON struct {
	Type    ReplyType `json:"type"`
	Message string    `json:"message"`
	Slots   []string  `json:"slots"`
}

func (r Reply) MarshalJSON() ([]byte, error) {
	if r.Type != ReplySlotSelection {
		return json.Marshal(r.Message)
	}
	slots := r.Slots
	if slots == nil {
		slots = []string{}
	}
	return json.Marshal(slotSelectionJSON{Type: r.Type, Message: r.Message, Slots: slots})
}
