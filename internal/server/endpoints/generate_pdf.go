package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fichemax/fichemax/internal/api"
	"github.com/fichemax/fichemax/internal/render"
	"github.com/fichemax/fichemax/internal/studysheet"
	"github.com/fichemax/fichemax/internal/svcctx"
)

// GeneratePDFEndpoint handles POST /generate-pdf - build a study sheet and
// return it as a downloadable PDF.
type GeneratePDFEndpoint struct{}

// NewGeneratePDFEndpoint creates the PDF endpoint.
func NewGeneratePDFEndpoint() *GeneratePDFEndpoint {
	return &GeneratePDFEndpoint{}
}

// Route returns the HTTP route for this endpoint.
func (e *GeneratePDFEndpoint) Route() (string, string, http.HandlerFunc) {
	return http.MethodPost, "/generate-pdf", e.handle
}

// RequiresInit returns true - generation needs the full pipeline.
func (e *GeneratePDFEndpoint) RequiresInit() bool { return true }

func (e *GeneratePDFEndpoint) handle(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Corps de requête invalide.", err.Error())
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "La question est requise.", "")
		return
	}

	ctx := r.Context()
	gen := svcctx.GeneratorFrom(ctx)
	renderer := svcctx.RendererFrom(ctx)
	logger := svcctx.LoggerFrom(ctx)

	sheet, err := gen.Generate(ctx, req.Question)
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

	// Render fully before touching headers so a failure can still produce
	// a JSON error response.
	pdf, err := renderer.RenderStudySheet(ctx, sheet)
	if err != nil {
		logger.Error("pdf rendering failed", "question", req.Question, "renderer", renderer.Name(), "error", err)
		writeError(w, http.StatusInternalServerError, "La génération du PDF a échoué.", err.Error())
		return
	}

	fileName := render.PDFFileName(req.Question)
	e.archive(r, sheet, fileName, pdf)

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

// archive keeps a copy of the sheet record and the PDF on disk. Both are
// best effort; failures are logged and never fail the download.
func (e *GeneratePDFEndpoint) archive(r *http.Request, sheet *studysheet.StudySheet, fileName string, pdf []byte) {
	ctx := r.Context()
	logger := svcctx.LoggerFrom(ctx)

	if sheets := svcctx.SheetsFrom(ctx); sheets != nil {
		if _, err := sheets.Save(ctx, sheet.Question, sheet.Course.Title, fileName); err != nil {
			logger.Warn("failed to archive sheet record", "question", sheet.Question, "error", err)
		}
	}
	if h := svcctx.HomeFrom(ctx); h != nil {
		if err := os.WriteFile(h.PDFPath(fileName), pdf, 0o644); err != nil {
			logger.Warn("failed to archive pdf", "file", fileName, "error", err)
		}
	}
}

// Command returns the CLI command for this endpoint.
func (e *GeneratePDFEndpoint) Command(getServerURL func() string) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "pdf [question]",
		Short: "Generate a study sheet and download it as a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			pdf, contentType, err := client.PostRaw(cmd.Context(), "/generate-pdf", GenerateRequest{Question: args[0]})
			if err != nil {
				return err
			}
			if contentType != "application/pdf" {
				return fmt.Errorf("unexpected content type: %s", contentType)
			}

			path := outPath
			if path == "" {
				path = render.PDFFileName(args[0])
			}
			if err := os.WriteFile(path, pdf, 0o644); err != nil {
				return fmt.Errorf("failed to write PDF: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", path, len(pdf))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "file", "f", "", "output file path (default fiche_<question>.pdf)")
	return cmd
}
