// Package msg describes the protocol used between the NATS client and worker.
package msg

// Request is sent to the worker on the worker subject to ask it to do something on behalf of the client.  Only one
// of the pointer fields should be non-nil.
type Request struct {
	// Job identifies the request, which will be present in the response.
	Job string `json:"job,omitempty"`

	// Overlap is a request to find the overlap between two strings.
	Overlap *OverlapRequest `json:"overlap,omitempty"`

	// Join is a request to add a chunk to a session's stream.
	Join *JoinRequest `json:"join,omitempty"`

	// Reset is a request to forget a session.
	Reset *ResetRequest `json:"reset,omitempty"`
}

// Directions for an OverlapRequest.
const (
	DirectionEnd   = "end"   // the end of left overlaps the start of right; the default.
	DirectionStart = "start" // the start of left overlaps the end of right.
)

// OverlapRequest asks the worker for the overlap between Left and Right.  The overlap is always a substring of Left.
type OverlapRequest struct {
	Left  string `json:"left"`
	Right string `json:"right"`

	// Direction is either DirectionEnd or DirectionStart; empty means DirectionEnd.
	Direction string `json:"direction,omitempty"`

	// Finder names the overlap finder to use, as registered with the overlap package.  Empty means the default.
	Finder string `json:"finder,omitempty"`
}

// JoinRequest adds a chunk to the stream identified by Session.  Sessions are created on first use.
type JoinRequest struct {
	Session string `json:"session"`
	Chunk   string `json:"chunk"`

	// Options configures the session when this request creates it, and is ignored otherwise.  Nil means the
	// worker's defaults.
	Options *JoinOptions `json:"options,omitempty"`
}

// JoinOptions overrides a worker's defaults for a new join session.  Zero values keep the worker's default.
type JoinOptions struct {
	// Window is the number of bytes retained by the session; the worker may lower it to its own limit.
	Window int `json:"window,omitempty"`

	// MinOverlap is the shortest overlap the session will drop.
	MinOverlap int `json:"min_overlap,omitempty"`

	// NFC normalizes chunks to Unicode NFC before they are compared.
	NFC bool `json:"nfc,omitempty"`

	// Finder names the overlap finder used by the session.
	Finder string `json:"finder,omitempty"`
}

// ResetRequest discards the stream identified by Session.
type ResetRequest struct {
	Session string `json:"session"`
}

// Response is sent from the worker to reply to a Request.  Only one of the pointer fields should be non-nil.
type Response struct {
	// Job matches the job id from the Request.
	Job string `json:"job,omitempty"`

	// Overlap is a response to an OverlapRequest.
	Overlap *OverlapResponse `json:"overlap,omitempty"`

	// Join is a response to a JoinRequest.
	Join *JoinResponse `json:"join,omitempty"`

	// Reset is a response to a ResetRequest.
	Reset *ResetResponse `json:"reset,omitempty"`

	// Error is a response to any request that failed.
	Error *Error `json:"error,omitempty"`
}

// OverlapResponse carries the overlap and where it starts in Left.
type OverlapResponse struct {
	Overlap string `json:"overlap"`
	Offset  int    `json:"offset"`
}

// String implements fmt.Stringer by returning the Overlap field.
func (msg OverlapResponse) String() string { return msg.Overlap }

// JoinResponse carries the part of the chunk that did not repeat the session's stream.
type JoinResponse struct {
	Fresh string `json:"fresh"`
}

// String implements fmt.Stringer by returning the Fresh field.
func (msg JoinResponse) String() string { return msg.Fresh }

// ResetResponse is sent as a reply to ResetRequest.
type ResetResponse struct {
	// Existed is true if the session was known to the worker.
	Existed bool `json:"existed,omitempty"`
}

// Error is used to indicate that a request failed.
type Error struct {
	Code int    `json:"code,omitempty"`
	Err  string `json:"error"`
}

// Error implements the error interface by returning the Err field, ignoring the Code field.
func (e Error) Error() string {
	return e.Err
}

// Error codes.
const (
	ErrUnknown            = iota // omitted error code, indicates an unknown error
	ErrIllegibleRequest          // request was not a valid JSON object
	ErrInvalidRequest            // request is missing required fields or has invalid values
	ErrUnsupportedCommand        // command was not found
	ErrUnknownFinder             // the requested finder is not registered
	ErrShuttingDown              // worker is shutting down and will not accept new jobs
	ErrHookFailed                // a request hook failed
)
