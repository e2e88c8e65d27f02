package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of caller roles. The role decides which schema
// variant and row-level restrictions the query pipeline works with.
type Role string

const (
	RolePatient Role = "Patient"
	RoleDoctor  Role = "Doctor"
	RoleAdmin   Role = "Admin"
)

// ParseRole resolves a free-form role value into the closed set.
// Unrecognized values are an explicit error, not a silent fallthrough.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "patient":
		return RolePatient, nil
	case "doctor":
		return RoleDoctor, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unrecognized role: %q", s)
	}
}

func (r Role) String() string {
	return string(r)
}

// Identity identifies the requesting user for one turn. Immutable per
// request.
type Identity struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

// Complete reports whether both identity fields are present.
func (id Identity) Complete() bool {
	return id.UserID != "" && id.Role != ""
}

// Message represents one turn in a conversation thread.
type Message struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Intent is the discrete category assigned to a user message. Exactly
// one intent is decided fresh each turn.
type Intent string

const (
	IntentQuery          Intent = "query_related"
	IntentMedical        Intent = "medical_related"
	IntentRecommendation Intent = "doctor_recommendation_related"
	IntentSystemFlow     Intent = "system_flow_related"
	IntentOutOfScope     Intent = "out_of_scope"
)

// Intents lists the canonical intent tokens in the order the classifier
// matches them against model output.
var Intents = []Intent{
	IntentQuery,
	IntentRecommendation,
	IntentMedical,
	IntentSystemFlow,
	IntentOutOfScope,
}
