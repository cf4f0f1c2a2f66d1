package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAutosave Action = "autosave"
	ActionFinish   Action = "finish"
	ActionPing     Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// AutosaveRequest saves a batch of answers. A null value clears the slot.
type AutosaveRequest struct {
	Action  Action          `json:"action"`
	Answers []AutosaveEntry `json:"answers"`
}

type AutosaveEntry struct {
	Slot  string  `json:"slot"`
	Value *string `json:"value"`
}

// FinishRequest is sent by the client to submit the session for grading.
type FinishRequest struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError    Event = "error"
	EventSuccess  Event = "success"
	EventFinished Event = "finished"
	EventTick     Event = "tick"
	EventPong     Event = "pong"
)

type AutosaveResponse struct {
	Event  Event  `json:"event"`
	Status string `json:"status"`
	Saved  int    `json:"saved"`
}

type FinishedResponse struct {
	Event  Event   `json:"event"`
	Status string  `json:"status"`
	Score  float64 `json:"score"`
}

// TickResponse carries the authoritative remaining time in seconds. The
// client must never trust its own clock for the countdown.
type TickResponse struct {
	Event     Event `json:"event"`
	Remaining int64 `json:"remaining"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
