package entity

// Event statuses, one pub/sub channel each.
const (
	EventCompleted = "completed"
	EventFailed    = "failed"
)

// Event announces the outcome of a task to downstream subscribers.
type Event struct {
	EventID   string `json:"event_id"`
	ID        string `json:"id"`
	TargetURL string `json:"targetUrl"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Reason    string `json:"reason,omitempty"`
}
