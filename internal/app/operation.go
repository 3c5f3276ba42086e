package app

// Run statuses recorded in the history.
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusError   = "error"
)

// Operation tracks the CLI command being run. It is created in memory with
// ID=0 and gets the history row's ID once recorded.
type Operation struct {
	ID         int64
	RunID      string
	Name       string
	Parameters string
	Status     string
}

// NewOperation creates a new in-memory operation.
func NewOperation(runID, name, parameters string) *Operation {
	return &Operation{
		RunID:      runID,
		Name:       name,
		Parameters: parameters,
		Status:     StatusRunning,
	}
}

// Persisted returns true if this operation has been saved to the history.
func (op *Operation) Persisted() bool {
	return op.ID != 0
}

// Done records the outcome of the operation. The first error wins.
func (op *Operation) Done(err error) {
	if op.Status == StatusError {
		return
	}
	if err != nil {
		op.Status = StatusError
		return
	}
	op.Status = StatusSuccess
}

// finalStatus is the status written when the app closes. An operation
// that never reported an outcome is recorded as successful.
func (op *Operation) finalStatus() string {
	if op.Status == StatusRunning {
		return StatusSuccess
	}
	return op.Status
}
