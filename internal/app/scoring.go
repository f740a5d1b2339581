package app

import "fmt"

// Per-question time allowances in seconds. The real SAT allows roughly 84
// seconds per question; quiz mode is slightly more generous.
const (
	TestSecondsPerQuestion = 84
	QuizSecondsPerQuestion = 90
)

// ScoreResult is the outcome of grading a completed response set.
type ScoreResult struct {
	TotalQuestions int     `json:"totalQuestions"`
	CorrectAnswers int     `json:"correctAnswers"`
	WrongAnswers   int     `json:"wrongAnswers"`
	Percentage     float64 `json:"percentage"`
	Letter         string  `json:"grade"`
	Feedback       string  `json:"feedback"`
}

// Grade converts a correct/total pair into a percentage, letter grade and
// feedback text. A zero total grades as zero percent rather than dividing.
func Grade(correct, total int) ScoreResult {
	var percentage float64
	if total > 0 {
		percentage = float64(correct) / float64(total) * 100
	}
	return ScoreResult{
		TotalQuestions: total,
		CorrectAnswers: correct,
		WrongAnswers:   total - correct,
		Percentage:     percentage,
		Letter:         LetterGrade(percentage),
		Feedback:       Feedback(percentage),
	}
}

// LetterGrade maps a percentage to a letter via fixed thresholds.
func LetterGrade(percentage float64) string {
	switch {
	case percentage >= 90:
		return "A"
	case percentage >= 80:
		return "B"
	case percentage >= 70:
		return "C"
	case percentage >= 60:
		return "D"
	default:
		return "F"
	}
}

// Feedback maps a percentage to one of five canned messages, using the same
// thresholds as the letter grade.
func Feedback(percentage float64) string {
	switch {
	case percentage >= 90:
		return "Excellent work!"
	case percentage >= 80:
		return "Good job! Keep practicing."
	case percentage >= 70:
		return "Nice effort. Review weak areas."
	case percentage >= 60:
		return "Fair attempt. More practice needed."
	default:
		return "Review the material and try again."
	}
}

// QuizDuration returns the quiz-mode timer size in seconds.
func QuizDuration(questionCount int) int {
	return questionCount * QuizSecondsPerQuestion
}

// TestDuration returns the test-mode timer size in seconds.
func TestDuration(questionCount int) int {
	return questionCount * TestSecondsPerQuestion
}

// FormatRemaining renders seconds as M:SS for display.
func FormatRemaining(seconds int) string {
	if seconds <= 0 {
		return "0:00"
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
