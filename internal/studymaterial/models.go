package studymaterial

// InputMethod is the content source of a generation request. Exactly one
// content-bearing field is populated per request.
type InputMethod string

const (
	InputMethodText  InputMethod = "text"
	InputMethodTopic InputMethod = "topic"
	InputMethodFile  InputMethod = "file"
)

// StudyPurpose steers the tone of the generated material.
type StudyPurpose string

const (
	PurposeRevision     StudyPurpose = "revision"
	PurposeDeepLearning StudyPurpose = "deep-learning"
	PurposeExamPrep     StudyPurpose = "exam-prep"
)

// DifficultyLevel steers the complexity of the generated material.
type DifficultyLevel string

const (
	DifficultyBeginner     DifficultyLevel = "beginner"
	DifficultyIntermediate DifficultyLevel = "intermediate"
	DifficultyAdvanced     DifficultyLevel = "advanced"
)

// GenerateRequest is the JSON request for the text and topic variants.
// Field names match the backend wire shape exactly.
type GenerateRequest struct {
	InputMethod     InputMethod     `json:"input_method" binding:"required"`
	Content         string          `json:"content,omitempty"`
	Topic           string          `json:"topic,omitempty"`
	Purpose         StudyPurpose    `json:"purpose" binding:"required"`
	DifficultyLevel DifficultyLevel `json:"difficulty_level" binding:"required"`
	GeminiAPIKey    string          `json:"gemini_api_key,omitempty"`
}

// FileRequest is the multipart request for the file variant. The payload is
// read into memory by the handler after the size gate.
type FileRequest struct {
	Filename        string
	ContentType     string
	Size            int64
	Data            []byte
	Purpose         StudyPurpose
	DifficultyLevel DifficultyLevel
	GeminiAPIKey    string
}

// Flashcard is a single question/answer pair.
type Flashcard struct {
	Question string `json:"question" firestore:"question"`
	Answer   string `json:"answer" firestore:"answer"`
}

// QuizOption is one choice of a multiple-choice question.
type QuizOption struct {
	Option    string `json:"option" firestore:"option"`
	IsCorrect bool   `json:"is_correct" firestore:"isCorrect"`
}

// QuizQuestion is a multiple-choice question. The backend is expected to mark
// exactly one option correct but does not enforce it; scoring tolerates the
// ambiguity (see results.ScoreQuiz).
type QuizQuestion struct {
	Question    string       `json:"question" firestore:"question"`
	Options     []QuizOption `json:"options" firestore:"options"`
	Explanation string       `json:"explanation" firestore:"explanation"`
}

// Result is the structured output of one generation.
type Result struct {
	Summary    string         `json:"summary" firestore:"summary"`
	Flashcards []Flashcard    `json:"flashcards" firestore:"flashcards"`
	Quiz       []QuizQuestion `json:"quiz" firestore:"quiz"`
}

// ValidPurpose reports whether p is a known study purpose.
func ValidPurpose(p StudyPurpose) bool {
	switch p {
	case PurposeRevision, PurposeDeepLearning, PurposeExamPrep:
		return true
	}
	return false
}

// ValidDifficulty reports whether d is a known difficulty level.
func ValidDifficulty(d DifficultyLevel) bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}
