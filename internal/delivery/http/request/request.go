package request

type SubmitTaskRequest struct {
	ID        string `json:"id"`
	TargetURL string `json:"targetUrl"`
	Force     bool   `json:"force"`
}
