package studysheet

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Key variants the model emits despite the prompt dictating exact names.
// Folded into the canonical key before schema validation.
var courseKeyVariants = map[string][]string{
	"Définitions et Formules":              {"Définition et formules", "Définitions et formules"},
	"Bullet points avec les concepts clés": {"Les concepts clés"},
}

// ParseSheetJSON turns raw model output into a StudySheet. It recovers from
// markdown code fences and surrounding prose, folds known key variants,
// validates the result against the wire schema, and normalizes the quiz
// (sequential numbering, parsed correct-choice index). Returns
// ErrMalformedOutput when no candidate parses or validation fails.
func ParseSheetJSON(content string) (*StudySheet, error) {
	doc, err := decodeCandidates(content)
	if err != nil {
		return nil, err
	}

	foldKeyVariants(doc)

	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if err := validateRawSheet(normalized); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	var wire wireSheet
	if err := json.Unmarshal(normalized, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	return wire.toStudySheet(), nil
}

// decodeCandidates tries the content as-is, then with code fences stripped,
// then the outermost JSON object extracted from surrounding text.
func decodeCandidates(content string) (map[string]any, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: empty output", ErrMalformedOutput)
	}

	candidates := []string{content}
	if stripped := stripCodeFences(content); stripped != "" && stripped != content {
		candidates = append(candidates, stripped)
	}
	for _, c := range candidates[:] {
		if extracted := extractJSONObject(c); extracted != "" && extracted != c {
			candidates = append(candidates, extracted)
		}
	}

	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if _, ok := seen[candidate]; ok {
			continue
		}
		seen[candidate] = struct{}{}

		var doc map[string]any
		if err := json.Unmarshal([]byte(candidate), &doc); err == nil {
			return doc, nil
		}
	}

	return nil, fmt.Errorf("%w: no parseable JSON object", ErrMalformedOutput)
}

// stripCodeFences removes a leading ``` fence line and a trailing ``` line.
func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return ""
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return ""
	}

	// Drop first fence line.
	lines = lines[1:]
	// Drop trailing fence if present.
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// extractJSONObject returns the outermost {...} span, or "".
func extractJSONObject(content string) string {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	if start < 0 {
		return ""
	}
	end := strings.LastIndex(trimmed, "}")
	if end < start {
		return ""
	}
	return strings.TrimSpace(trimmed[start : end+1])
}

// foldKeyVariants rewrites known alternate spellings of course field names to
// the canonical key, in place. The canonical key wins if both are present.
func foldKeyVariants(doc map[string]any) {
	course, ok := doc["cours"].(map[string]any)
	if !ok {
		return
	}
	for canonical, variants := range courseKeyVariants {
		if _, ok := course[canonical]; ok {
			continue
		}
		for _, variant := range variants {
			if v, ok := course[variant]; ok {
				course[canonical] = v
				delete(course, variant)
				break
			}
		}
	}
}

// Wire types matching the model's JSON contract.

type wireSheet struct {
	Cours wireCourse `json:"cours"`
	QCM   wireQuiz   `json:"qcm"`
}

type wireCourse struct {
	Title                  string   `json:"Titre du cours"`
	Description            string   `json:"Description du cours"`
	KeyConcepts            []string `json:"Concepts clés"`
	DefinitionsAndFormulas []string `json:"Définitions et Formules"`
	WorkedExample          string   `json:"Exemple concret"`
	KeyBulletPoints        []string `json:"Bullet points avec les concepts clés"`
}

type wireQuiz struct {
	Questions []wireQuestion `json:"questions"`
}

type wireQuestion struct {
	Numero      json.RawMessage `json:"numero"`
	Question    string          `json:"question"`
	Choix       []string        `json:"choix"`
	BonneRep    json.RawMessage `json:"bonne_reponse"`
	Explication string          `json:"explication"`
}

func (w *wireSheet) toStudySheet() *StudySheet {
	sheet := &StudySheet{
		Course: Course{
			Title:                  strings.TrimSpace(w.Cours.Title),
			Description:            strings.TrimSpace(w.Cours.Description),
			KeyConcepts:            cleanStrings(w.Cours.KeyConcepts),
			DefinitionsAndFormulas: cleanStrings(w.Cours.DefinitionsAndFormulas),
			WorkedExample:          strings.TrimSpace(w.Cours.WorkedExample),
			KeyBulletPoints:        cleanStrings(w.Cours.KeyBulletPoints),
		},
	}

	for i, q := range w.QCM.Questions {
		choices := cleanStrings(q.Choix)
		sheet.Quiz.Questions = append(sheet.Quiz.Questions, Question{
			// Model-provided numbering is unreliable; renumber sequentially.
			Number:        i + 1,
			Prompt:        strings.TrimSpace(q.Question),
			Choices:       choices,
			CorrectChoice: parseCorrectChoice(q.BonneRep, len(choices)),
			Explanation:   strings.TrimSpace(q.Explication),
		})
	}

	return sheet
}

// parseCorrectChoice interprets bonne_reponse as a 1-based index into the
// choices. The model sends it as a string ("2") or occasionally a number.
// Anything unparsable or out of range yields 0: no answer highlighted.
func parseCorrectChoice(raw json.RawMessage, numChoices int) int {
	if len(raw) == 0 {
		return 0
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		var num float64
		if err := json.Unmarshal(raw, &num); err != nil {
			return 0
		}
		text = strconv.Itoa(int(num))
	}

	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0
	}
	if n < 1 || n > numChoices {
		return 0
	}
	return n
}

func cleanStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
