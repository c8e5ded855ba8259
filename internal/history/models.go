package history

import (
	"time"

	"github.com/studygeni/study-gateway/internal/studymaterial"
)

// Entry is one persisted generation: the result plus its input metadata.
// Entries are created once and never updated or deleted by this service.
type Entry struct {
	ID              string                        `json:"id" firestore:"-"`
	OwnerID         string                        `json:"ownerId" firestore:"ownerId"`
	CreatedAt       time.Time                     `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	InputType       studymaterial.InputMethod     `json:"inputType" firestore:"inputType"`
	InputDetail     string                        `json:"inputDetail" firestore:"inputDetail"`
	Purpose         studymaterial.StudyPurpose    `json:"purpose" firestore:"purpose"`
	DifficultyLevel studymaterial.DifficultyLevel `json:"difficultyLevel" firestore:"difficultyLevel"`
	Summary         string                        `json:"summary" firestore:"summary"`
	Flashcards      []studymaterial.Flashcard     `json:"flashcards" firestore:"flashcards"`
	Quiz            []studymaterial.QuizQuestion  `json:"quiz" firestore:"quiz"`
}

// Result reassembles the generation result held by the entry.
func (e *Entry) Result() *studymaterial.Result {
	return &studymaterial.Result{
		Summary:    e.Summary,
		Flashcards: e.Flashcards,
		Quiz:       e.Quiz,
	}
}

// FetchState tracks the per-owner list state machine.
type FetchState string

const (
	StateIdle    FetchState = "idle"
	StateLoading FetchState = "loading"
	StateReady   FetchState = "ready"
	StateErrored FetchState = "errored"
)

// ListResponse is the history listing payload.
type ListResponse struct {
	Entries []*Entry   `json:"entries"`
	State   FetchState `json:"state"`
	Error   string     `json:"error,omitempty"`
}
