package harness

// CaseOK is the case of a step that returned no error.
const CaseOK = "ok"

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq    int            `json:"seq"`
	Op     string         `json:"op"`
	Args   map[string]any `json:"args,omitempty"`
	Case   string         `json:"case"`
	Result map[string]any `json:"result,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace contains setup and flow steps in execution order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step to the trace and returns its sequence number.
func (r *Result) AddTrace(op string, args map[string]any, outcome string, result map[string]any) int {
	seq := len(r.Trace) + 1
	r.Trace = append(r.Trace, TraceEvent{
		Seq:    seq,
		Op:     op,
		Args:   args,
		Case:   outcome,
		Result: result,
	})
	return seq
}
