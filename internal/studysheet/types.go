// Package studysheet turns a student question into a structured revision
// sheet: course summary plus a multiple-choice quiz, generated by an LLM
// from retrieved course context.
package studysheet

import "errors"

var (
	// ErrNoContext means the corpus had nothing relevant to the question.
	ErrNoContext = errors.New("no relevant context found")

	// ErrMalformedOutput means the model reply could not be turned into a
	// valid study sheet even after fence stripping and JSON extraction.
	ErrMalformedOutput = errors.New("malformed model output")
)

// StudySheet is a complete revision sheet for one question.
type StudySheet struct {
	Question string `json:"question"`
	Course   Course `json:"course"`
	Quiz     Quiz   `json:"quiz"`
}

// Course is the summary half of a study sheet.
type Course struct {
	Title                  string   `json:"title"`
	Description            string   `json:"description"`
	KeyConcepts            []string `json:"key_concepts"`
	DefinitionsAndFormulas []string `json:"definitions_and_formulas"`
	WorkedExample          string   `json:"worked_example"`
	KeyBulletPoints        []string `json:"key_bullet_points"`
}

// Quiz is the self-test half of a study sheet.
type Quiz struct {
	Questions []Question `json:"questions"`
}

// Question is one multiple-choice quiz item.
type Question struct {
	Number  int      `json:"number"` // 1-based, sequential
	Prompt  string   `json:"prompt"`
	Choices []string `json:"choices"`
	// CorrectChoice is a 1-based index into Choices. Zero means the model
	// did not flag a usable answer and the UI should highlight nothing.
	CorrectChoice int    `json:"correct_choice"`
	Explanation   string `json:"explanation"`
}
