package harness

// TraceEvent is one step of a scenario run as observed by the harness.
type TraceEvent struct {
	Seq       int64  `json:"seq"` // journal sequence, 0 when the step sent no request
	Step      string `json:"step"`
	Op        string `json:"op"`
	RequestID string `json:"request_id,omitempty"`
	Query     string `json:"query,omitempty"`
	Status    int    `json:"status,omitempty"`
	Outcome   string `json:"outcome"` // "ok" or a client error code
	Value     any    `json:"value,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace holds one event per setup and flow step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result with an empty trace.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an event.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}

// Queries returns the query text of every traced request.
func (r *Result) Queries() []string {
	out := make([]string, 0, len(r.Trace))
	for _, ev := range r.Trace {
		if ev.Query != "" {
			out = append(out, ev.Query)
		}
	}
	return out
}
