// Package vo defines the view objects returned to the transport layer.
package vo

// DuplicateTask is reported when the queue rejected an identical job as a
// no-op. It is a normal outcome, not an error.
const DuplicateTask = "duplicate"

// EnqueueOutcome is the result of one scrape-job submission.
type EnqueueOutcome struct {
	Handle    string
	Duplicate bool
}

// Label renders the outcome the way acknowledgements report it: the job
// handle, or the literal "duplicate".
func (o EnqueueOutcome) Label() string {
	if o.Duplicate {
		return DuplicateTask
	}
	return o.Handle
}

// IngestReceipt summarizes one processed batch for the acknowledgement body.
type IngestReceipt struct {
	Indexed int      `json:"indexed"`
	Tasks   []string `json:"tasks"`
}

// ProfileReceipt acknowledges one profile message.
type ProfileReceipt struct {
	Task *string `json:"task"`
}
