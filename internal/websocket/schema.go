package websocket

// ─── Close codes ────────────────────────────────────────────────────────────
//
// The server closes the channel with a distinct code so the client can tell
// a bad address from a server fault. 4xxx codes are application-defined per
// RFC 6455.

const (
	// CloseBadSessionID: the session id in the connection path is malformed.
	CloseBadSessionID = 4400
	// CloseSessionNotFound: no session exists for the given id.
	CloseSessionNotFound = 4404
	// CloseDuplicateChannel: a live channel is already open for the session.
	CloseDuplicateChannel = 4409
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestPayload is the envelope for client messages.
type RequestPayload struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError     Event = "error"
	EventConnected Event = "connected"
	EventPong      Event = "pong"
)

// ConnectedResponse is sent once after the run-start transition succeeds.
type ConnectedResponse struct {
	Event            Event `json:"event"`
	RemainingSeconds *int  `json:"remaining_seconds,omitempty"`
}

// PongResponse answers a ping with the current clock reading.
type PongResponse struct {
	Event            Event `json:"event"`
	RemainingSeconds *int  `json:"remaining_seconds,omitempty"`
}

// ErrorResponse reports an in-band channel error.
type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}
