package httpapi

//ThreadCreateRequest is a request to create a new Thread
type ThreadCreateRequest struct {
	Title string `json:"title"`
}

//ThreadUpdateRequest is a request to rename a Thread
type ThreadUpdateRequest struct {
	Title string `json:"title"`
}

//ChatRequest is a request to send a message on a Thread's stream
type ChatRequest struct {
	Message string `json:"message"`
}

//ApprovalRequest is a verdict for a pending tool call
type ApprovalRequest struct {
	Approve *bool `json:"approve"`
}
