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

// AskEndpoint handles POST /queries/ask - free-form chatbot answer grounded
// in the course corpus.
type AskEndpoint struct{}

// NewAskEndpoint creates the ask endpoint.
func NewAskEndpoint() *AskEndpoint {
	return &AskEndpoint{}
}

// AskRequest is the request body for the ask endpoint.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse is the data payload for the ask endpoint.
type AskResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Route returns the HTTP route for this endpoint.
func (e *AskEndpoint) Route() (string, string, http.HandlerFunc) {
	return http.MethodPost, "/queries/ask", e.handle
}

// RequiresInit returns true - answering needs the full pipeline.
func (e *AskEndpoint) RequiresInit() bool { return true }

func (e *AskEndpoint) handle(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
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

	answer, err := gen.Answer(r.Context(), req.Question)
	if err != nil {
		if errors.Is(err, studysheet.ErrNoContext) {
			writeError(w, http.StatusBadRequest, NoContextMessage, "")
			return
		}
		logger.Error("answer generation failed", "question", req.Question, "error", err)
		writeError(w, http.StatusInternalServerError, "La génération de la réponse a échoué.", err.Error())
		return
	}

	writeData(w, http.StatusOK, AskResponse{Question: strings.TrimSpace(req.Question), Answer: answer})
}

// Command returns the CLI command for this endpoint.
func (e *AskEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask the course chatbot a question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp struct {
				Success bool        `json:"success"`
				Data    AskResponse `json:"data"`
			}
			err := client.Post(cmd.Context(), "/queries/ask", AskRequest{Question: args[0]}, &resp)
			if err != nil {
				return err
			}
			return api.Output(resp.Data)
		},
	}
}
