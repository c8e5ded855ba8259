package results

import (
	"errors"
	"fmt"

	"github.com/studygeni/study-gateway/internal/studymaterial"
)

// ErrIncompleteAnswers rejects scoring until every question has a selection.
var ErrIncompleteAnswers = errors.New("every question requires a selection")

// ScoreQuiz scores a completed quiz locally. The score is the number of
// questions whose selected option is flagged correct. Questions with zero or
// multiple correct options are tolerated: a selection counts iff the chosen
// option itself carries the correct flag.
func ScoreQuiz(quiz []studymaterial.QuizQuestion, selections []int) (int, error) {
	if len(selections) != len(quiz) {
		return 0, ErrIncompleteAnswers
	}

	score := 0
	for i, q := range quiz {
		if len(q.Options) == 0 {
			return 0, fmt.Errorf("question %d has no options", i)
		}

		sel := selections[i]
		if sel < 0 || sel >= len(q.Options) {
			return 0, ErrIncompleteAnswers
		}

		if q.Options[sel].IsCorrect {
			score++
		}
	}

	return score, nil
}
