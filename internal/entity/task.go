package entity

// Task is a unit of collection work as it travels through the queue.
// A retry is always a new message carrying an incremented RetryCount.
type Task struct {
	ID         string `json:"id"`
	TargetURL  string `json:"targetUrl"`
	RetryCount int    `json:"retry_count"`
}

// NextAttempt returns a copy of the task for re-enqueueing.
func (t Task) NextAttempt() Task {
	return Task{ID: t.ID, TargetURL: t.TargetURL, RetryCount: t.RetryCount + 1}
}
