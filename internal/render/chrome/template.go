package chrome

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/fichemax/fichemax/internal/studysheet"
)

// sheetTemplate mirrors the section order of the card preview: description,
// key concepts, definitions, worked example, key points, then the quiz.
var sheetTemplate = template.Must(template.New("sheet").Funcs(template.FuncMap{
	"plus1": func(i int) int { return i + 1 },
}).Parse(`<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="utf-8">
<style>
  body { font-family: Georgia, 'Times New Roman', serif; color: #22282b; margin: 0; }
  header { background: #007179; color: #fff; padding: 28px 36px; }
  header h1 { margin: 0; font-size: 26px; }
  main { padding: 24px 36px; }
  h2 { color: #007179; border-bottom: 2px solid #007179; padding-bottom: 4px; font-size: 18px; }
  ul { margin: 8px 0; padding-left: 22px; }
  li { margin: 4px 0; }
  .example { background: #f2f7f7; border-left: 4px solid #007179; padding: 10px 14px; }
  .question { margin: 14px 0; page-break-inside: avoid; }
  hr.sep { border: none; border-top: 1px solid #d4dbdd; margin: 14px 0; }
  .question .prompt { font-weight: bold; }
  .choice.correct { color: #1d7a3e; font-weight: bold; }
  .explanation { color: #5a6468; font-size: 13px; margin-top: 4px; }
</style>
</head>
<body>
<header><h1>{{.Title}}</h1></header>
<main>
{{if .Sheet.Course.Description}}<h2>Description</h2><p>{{.Sheet.Course.Description}}</p>{{end}}
{{if .Sheet.Course.KeyConcepts}}<h2>Concepts clés</h2><ul>{{range .Sheet.Course.KeyConcepts}}<li>{{.}}</li>{{end}}</ul>{{end}}
{{if .Sheet.Course.DefinitionsAndFormulas}}<h2>Définitions et formules</h2><ul>{{range .Sheet.Course.DefinitionsAndFormulas}}<li>{{.}}</li>{{end}}</ul>{{end}}
{{if .Sheet.Course.WorkedExample}}<h2>Exemple concret</h2><div class="example">{{.Sheet.Course.WorkedExample}}</div>{{end}}
{{if .Sheet.Course.KeyBulletPoints}}<h2>Points clés</h2><ul>{{range .Sheet.Course.KeyBulletPoints}}<li>{{.}}</li>{{end}}</ul>{{end}}
{{if .Sheet.Quiz.Questions}}<h2>QCM pour tester vos connaissances</h2>
{{range $qi, $q := .Sheet.Quiz.Questions}}{{if $qi}}<hr class="sep">{{end}}<div class="question">
  <div class="prompt">Question {{$q.Number}} : {{$q.Prompt}}</div>
  <ul>{{$correct := $q.CorrectChoice}}{{range $i, $c := $q.Choices}}<li class="choice{{if eq (plus1 $i) $correct}} correct{{end}}">{{plus1 $i}}. {{$c}}</li>{{end}}</ul>
  {{if $q.Explanation}}<div class="explanation">Explication : {{$q.Explanation}}</div>{{end}}
</div>{{end}}{{end}}
</main>
</body>
</html>`))

// renderHTML executes the sheet template.
func renderHTML(sheet *studysheet.StudySheet) (string, error) {
	title := sheet.Course.Title
	if title == "" {
		title = sheet.Question
	}

	var buf bytes.Buffer
	err := sheetTemplate.Execute(&buf, struct {
		Title string
		Sheet *studysheet.StudySheet
	}{Title: title, Sheet: sheet})
	if err != nil {
		return "", fmt.Errorf("failed to render sheet HTML: %w", err)
	}
	return buf.String(), nil
}
