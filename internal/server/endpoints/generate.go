package endpoints

import (
	"errors"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fichemax/fichemax/internal/api"
	"github.com/fichemax/fichemax/internal/studysheet"
	"github.com/fichemax/fichemax/internal/svcctx"
)

// GenerateEndpoint handles POST /generate-card-data - build a study sheet
// (course summary + quiz) for a question, as JSON.
type GenerateEndpoint struct{}

// NewGenerateEndpoint creates the generate endpoint.
func NewGenerateEndpoint() *GenerateEndpoint {
	return &GenerateEndpoint{}
}

// GenerateRequest is the request body for sheet generation.
type GenerateRequest struct {
	Question string `json:"question"`
}

// Route returns the HTTP route for this endpoint.
func (e *GenerateEndpoint) Route() (string, string, http.HandlerFunc) {
	return http.MethodPost, "/generate-card-data", e.handle
}

// RequiresInit returns true - generation needs the full pipeline.
func (e *GenerateEndpoint) RequiresInit() bool { return true }

func (e *GenerateEndpoint) handle(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Corps de requête invalide.", err.Error())
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "La question est requise.", "")
		return
	}

	gen := svcctx.GeneratorFrom(r.Context())
	logger := svcctx.LoggerFrom(r.Context())

	sheet, err := gen.Generate(r.Context(), req.Question)
	if err != nil {
		switch {
		case errors.Is(err, studysheet.ErrNoContext):
			writeError(w, http.StatusBadRequest, NoContextMessage, "")
		case errors.Is(err, studysheet.ErrMalformedOutput):
			logger.Error("sheet generation returned malformed output", "question", req.Question, "error", err)
			writeError(w, http.StatusInternalServerError, "La génération de la fiche a échoué.", "malformed model output")
		default:
			logger.Error("sheet generation failed", "question", req.Question, "error", err)
			writeError(w, http.StatusInternalServerError, "La génération de la fiche a échoué.", err.Error())
		}
		return
	}

	writeData(w, http.StatusOK, sheet)
}

// Command returns the CLI command for this endpoint.
func (e *GenerateEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "fiche [question]",
		Short: "Generate a study sheet and print it as structured data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp struct {
				Success bool                  `json:"success"`
				Data    studysheet.StudySheet `json:"data"`
			}
			err := client.Post(cmd.Context(), "/generate-card-data", GenerateRequest{Question: args[0]}, &resp)
			if err != nil {
				return err
			}
			return api.Output(resp.Data)
		},
	}
}
