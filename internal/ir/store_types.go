package ir

// NOTE: These are journal-layer types, not part of the results model.

// Exchange records one request/response pair issued by the client.
// Err is nil for a successful exchange.
type Exchange struct {
	RequestID  string
	Endpoint   string
	Query      string
	StatusCode int // 0 when the request never produced a response
	Bindings   int // rows in the parsed result, 0 on failure
	Err        error
}

// JournalEntry is a persisted Exchange as read back from the journal.
type JournalEntry struct {
	Seq        int64  `json:"seq"` // Logical clock (auto-increment)
	RequestID  string `json:"request_id"`
	Endpoint   string `json:"endpoint"`
	Query      string `json:"query"`
	StatusCode int    `json:"status_code"`
	Bindings   int    `json:"bindings"`
	Outcome    string `json:"outcome"` // "ok" or "error"
	Error      string `json:"error,omitempty"`
}
