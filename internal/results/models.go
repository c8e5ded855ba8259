package results

import (
	"github.com/studygeni/study-gateway/internal/history"
	"github.com/studygeni/study-gateway/internal/studymaterial"
)

// ViewSource names where the displayed result came from.
type ViewSource string

const (
	// SourceHistory is a re-viewed history entry snapshot.
	SourceHistory ViewSource = "history"
	// SourceCache is a previously generated result taken from the session slot.
	SourceCache ViewSource = "cache"
	// SourceGenerated is a freshly invoked generation.
	SourceGenerated ViewSource = "generated"
)

// ViewData is what the results view renders: the generation result, where it
// came from, and the non-fatal history outcome when an append was attempted.
type ViewData struct {
	Source       ViewSource            `json:"source"`
	Result       *studymaterial.Result `json:"result"`
	Entry        *history.Entry        `json:"entry,omitempty"`
	HistoryID    string                `json:"historyId,omitempty"`
	HistoryError string                `json:"historyError,omitempty"`
}

// ScoreRequest carries a quiz and the user's selected option index per
// question, in question order.
type ScoreRequest struct {
	Quiz       []studymaterial.QuizQuestion `json:"quiz" binding:"required"`
	Selections []int                        `json:"selections"`
}

// ScoreResponse is the local scoring outcome.
type ScoreResponse struct {
	Score int `json:"score"`
	Total int `json:"total"`
}
