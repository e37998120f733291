package studysheet

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// sheetSchema validates the wire shape the model is asked to produce.
// Field names are the French labels the prompt dictates; list fields must be
// arrays and the quiz must carry at least one question. Spelling variants the
// model is known to emit are folded in before validation (see foldKeyVariants).
const sheetSchema = `{
  "type": "object",
  "required": ["cours", "qcm"],
  "properties": {
    "cours": {
      "type": "object",
      "required": ["Titre du cours", "Description du cours"],
      "properties": {
        "Titre du cours": {"type": "string"},
        "Description du cours": {"type": "string"},
        "Concepts clés": {"type": "array", "items": {"type": "string"}},
        "Définitions et Formules": {"type": "array", "items": {"type": "string"}},
        "Exemple concret": {"type": "string"},
        "Bullet points avec les concepts clés": {"type": "array", "items": {"type": "string"}}
      }
    },
    "qcm": {
      "type": "object",
      "required": ["questions"],
      "properties": {
        "questions": {
          "type": "array",
          "minItems": 1,
          "items": {
            "type": "object",
            "required": ["question", "choix", "bonne_reponse"],
            "properties": {
              "numero": {"type": ["integer", "string"]},
              "question": {"type": "string"},
              "choix": {"type": "array", "items": {"type": "string"}, "minItems": 2},
              "bonne_reponse": {"type": ["string", "integer"]},
              "explication": {"type": "string"}
            }
          }
        }
      }
    }
  }
}`

var compiledSheetSchema = mustCompileSchema(sheetSchema)

func mustCompileSchema(src string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("sheet.json", strings.NewReader(src)); err != nil {
		panic(fmt.Sprintf("failed to load sheet schema: %v", err))
	}
	schema, err := compiler.Compile("sheet.json")
	if err != nil {
		panic(fmt.Sprintf("failed to compile sheet schema: %v", err))
	}
	return schema
}

// validateRawSheet checks model output against the wire schema.
func validateRawSheet(raw json.RawMessage) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to decode sheet JSON for validation: %w", err)
	}
	if err := compiledSheetSchema.Validate(doc); err != nil {
		return fmt.Errorf("sheet does not match schema: %w", err)
	}
	return nil
}
