package response

type SubmitTaskResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	ID         string `json:"id"`
	TargetURL  string `json:"targetUrl"`
	RetryCount int    `json:"retry_count"`
}

// QueueResponse reports how many tasks wait in each list.
type QueueResponse struct {
	Primary int64 `json:"primary"`
	Retry   int64 `json:"retry"`
}

type HealthResponse struct {
	Status   string `json:"status"` // "ok" or "degraded"
	Redis    string `json:"redis"`
	Postgres string `json:"postgres"`
}
