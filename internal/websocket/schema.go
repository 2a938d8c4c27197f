package websocket

import "time"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventSubmission Event = "submission"
	EventError      Event = "error"
	EventPong       Event = "pong"
)

// SubmissionMessage is pushed to monitors when a participant completes the
// survey.
type SubmissionMessage struct {
	Event       Event     `json:"event"`
	SurveyID    string    `json:"survey_id"`
	Hospital    string    `json:"hospital"`
	Participant string    `json:"participant"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
