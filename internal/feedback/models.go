package feedback

// Request is the user feedback payload. Name and email are optional.
type Request struct {
	Feedback string `json:"feedback" binding:"required"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Response reports whether the feedback was delivered.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
