package endpoints

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/fichemax/fichemax/internal/home"
	"github.com/fichemax/fichemax/internal/providers"
	"github.com/fichemax/fichemax/internal/studysheet"
	"github.com/fichemax/fichemax/internal/svcctx"
)

const sheetFixture = `{
	"cours": {
		"Titre du cours": "Les diodes",
		"Description du cours": "Composant à jonction PN.",
		"Concepts clés": ["Jonction PN"],
		"Définitions et Formules": ["Vd ≈ 0,7 V"],
		"Exemple concret": "Redressement simple alternance.",
		"Bullet points avec les concepts clés": ["Sens passant"]
	},
	"qcm": {
		"questions": [
			{
				"numero": 1,
				"question": "Quelle est la tension de seuil typique ?",
				"choix": ["0,7 V", "5 V", "12 V", "230 V"],
				"bonne_reponse": "1",
				"explication": "Pour une diode silicium."
			}
		]
	}
}`

type stubRetriever struct {
	context string
	err     error
}

func (s *stubRetriever) RetrieveContext(ctx context.Context, question string) (string, error) {
	return s.context, s.err
}

type stubRenderer struct {
	pdf   []byte
	err   error
	calls int
}

func (r *stubRenderer) RenderStudySheet(ctx context.Context, sheet *studysheet.StudySheet) ([]byte, error) {
	r.calls++
	return r.pdf, r.err
}

func (r *stubRenderer) Name() string { return "stub" }

type testEnv struct {
	services *svcctx.Services
	llm      *providers.MockClient
	renderer *stubRenderer
	home     *home.Dir
}

func newTestEnv(t *testing.T, retrieved string) *testEnv {
	t.Helper()

	llm := providers.NewMockClient()
	llm.ResponseJSON = json.RawMessage(sheetFixture)
	llm.ResponseText = "Réponse du chatbot."

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gen := studysheet.NewGenerator(llm, &stubRetriever{context: retrieved}, logger, studysheet.GeneratorConfig{
		Model: "test-model",
	})

	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create home dir: %v", err)
	}
	if err := h.EnsureExists(); err != nil {
		t.Fatalf("failed to ensure home dir: %v", err)
	}

	renderer := &stubRenderer{pdf: []byte("%PDF-1.7 stub")}

	return &testEnv{
		services: &svcctx.Services{
			Generator: gen,
			Renderer:  renderer,
			Logger:    logger,
			Home:      h,
		},
		llm:      llm,
		renderer: renderer,
		home:     h,
	}
}

func (env *testEnv) do(method, path string, body string, handler http.HandlerFunc) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req = req.WithContext(svcctx.WithServices(req.Context(), env.services))

	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v (body %q)", err, w.Body.String())
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, "contexte")
	_, _, handler := NewHealthEndpoint().Route()

	w := env.do(http.MethodGet, "/health", "", handler)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("expected status ok, got %q", resp.Status)
	}
}

func TestReadyEndpointWithoutDatabase(t *testing.T) {
	env := newTestEnv(t, "contexte")
	_, _, handler := NewReadyEndpoint().Route()

	w := env.do(http.MethodGet, "/ready", "", handler)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a database pool, got %d", w.Code)
	}
}

func TestGenerateEndpoint(t *testing.T) {
	env := newTestEnv(t, "Les diodes sont des composants à jonction PN.")
	_, _, handler := NewGenerateEndpoint().Route()

	w := env.do(http.MethodPost, "/generate-card-data", `{"question":"Les diodes"}`, handler)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body %s)", w.Code, w.Body.String())
	}

	var resp struct {
		Success bool                  `json:"success"`
		Data    studysheet.StudySheet `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if !resp.Success {
		t.Error("expected success true")
	}
	if resp.Data.Course.Title != "Les diodes" {
		t.Errorf("unexpected title %q", resp.Data.Course.Title)
	}
	if len(resp.Data.Quiz.Questions) != 1 {
		t.Fatalf("expected 1 quiz question, got %d", len(resp.Data.Quiz.Questions))
	}
	if resp.Data.Quiz.Questions[0].CorrectChoice != 1 {
		t.Errorf("expected correct choice 1, got %d", resp.Data.Quiz.Questions[0].CorrectChoice)
	}
}

func TestGenerateEndpointNoContext(t *testing.T) {
	env := newTestEnv(t, "")
	_, _, handler := NewGenerateEndpoint().Route()

	w := env.do(http.MethodPost, "/generate-card-data", `{"question":"Hors sujet"}`, handler)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on empty context, got %d", w.Code)
	}

	resp := decodeError(t, w)
	if resp.Success {
		t.Error("expected success false")
	}
	if resp.Message != NoContextMessage {
		t.Errorf("expected the no-context message, got %q", resp.Message)
	}
	if env.llm.RequestCount() != 0 {
		t.Errorf("the model should not be called without context, got %d calls", env.llm.RequestCount())
	}
}

func TestGenerateEndpointMalformedOutput(t *testing.T) {
	env := newTestEnv(t, "contexte")
	env.llm.ResponseJSON = json.RawMessage(`{"pas":"une fiche"}`)
	_, _, handler := NewGenerateEndpoint().Route()

	w := env.do(http.MethodPost, "/generate-card-data", `{"question":"Les diodes"}`, handler)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on malformed output, got %d", w.Code)
	}

	resp := decodeError(t, w)
	if strings.Contains(resp.Message, "cours") || strings.Contains(resp.Error, sheetFixture) {
		t.Error("error response should not leak model output")
	}
}

func TestGenerateEndpointValidation(t *testing.T) {
	env := newTestEnv(t, "contexte")
	_, _, handler := NewGenerateEndpoint().Route()

	for _, body := range []string{"", `{}`, `{"question":"  "}`, `{"question":"x","extra":1}`} {
		w := env.do(http.MethodPost, "/generate-card-data", body, handler)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, w.Code)
		}
	}
}

func TestGeneratePDFEndpoint(t *testing.T) {
	env := newTestEnv(t, "contexte")
	_, _, handler := NewGeneratePDFEndpoint().Route()

	w := env.do(http.MethodPost, "/generate-pdf", `{"question":"Les diodes"}`, handler)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body %s)", w.Code, w.Body.String())
	}

	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("expected application/pdf, got %q", ct)
	}
	cd := w.Header().Get("Content-Disposition")
	if !strings.Contains(cd, "attachment") || !strings.Contains(cd, "fiche_les_diodes.pdf") {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}
	if !bytes.Equal(w.Body.Bytes(), env.renderer.pdf) {
		t.Error("response body should be the rendered PDF bytes")
	}

	// The PDF is archived under the home directory for later retrieval.
	archived := env.home.PDFPath("fiche_les_diodes.pdf")
	data, err := os.ReadFile(archived)
	if err != nil {
		t.Fatalf("expected archived PDF at %s: %v", archived, err)
	}
	if !bytes.Equal(data, env.renderer.pdf) {
		t.Error("archived PDF should match the response")
	}
}

func TestGeneratePDFEndpointRenderFailure(t *testing.T) {
	env := newTestEnv(t, "contexte")
	env.renderer.pdf = nil
	env.renderer.err = fmt.Errorf("chrome not found")
	_, _, handler := NewGeneratePDFEndpoint().Route()

	w := env.do(http.MethodPost, "/generate-pdf", `{"question":"Les diodes"}`, handler)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on render failure, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("render failures must return JSON, got %q", ct)
	}
}

func TestGeneratePDFEndpointMalformedOutput(t *testing.T) {
	env := newTestEnv(t, "contexte")
	env.llm.ResponseJSON = json.RawMessage(`pas du JSON`)
	_, _, handler := NewGeneratePDFEndpoint().Route()

	w := env.do(http.MethodPost, "/generate-pdf", `{"question":"Les diodes"}`, handler)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on malformed output, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected a JSON error, got %q", ct)
	}
	if env.renderer.calls != 0 {
		t.Errorf("the renderer must not run on malformed output, got %d calls", env.renderer.calls)
	}
	if bytes.Contains(w.Body.Bytes(), []byte("%PDF")) {
		t.Error("no PDF bytes may be streamed on failure")
	}
}

func TestGeneratePDFEndpointNoContext(t *testing.T) {
	env := newTestEnv(t, "")
	_, _, handler := NewGeneratePDFEndpoint().Route()

	w := env.do(http.MethodPost, "/generate-pdf", `{"question":"Hors sujet"}`, handler)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Message != NoContextMessage {
		t.Errorf("expected the no-context message, got %q", resp.Message)
	}
}

func TestAskEndpoint(t *testing.T) {
	env := newTestEnv(t, "contexte")
	_, _, handler := NewAskEndpoint().Route()

	w := env.do(http.MethodPost, "/queries/ask", `{"question":"Expliquez les diodes"}`, handler)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body %s)", w.Code, w.Body.String())
	}

	var resp struct {
		Success bool        `json:"success"`
		Data    AskResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if resp.Data.Answer != "Réponse du chatbot." {
		t.Errorf("unexpected answer %q", resp.Data.Answer)
	}
}

func TestAskEndpointNoContext(t *testing.T) {
	env := newTestEnv(t, "")
	_, _, handler := NewAskEndpoint().Route()

	w := env.do(http.MethodPost, "/queries/ask", `{"question":"Hors sujet"}`, handler)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Message != NoContextMessage {
		t.Errorf("expected the no-context message, got %q", resp.Message)
	}
}

func TestDocumentsEndpointValidation(t *testing.T) {
	env := newTestEnv(t, "contexte")
	_, _, handler := NewDocumentsEndpoint().Route()

	tests := []string{
		`{}`,
		`{"document_id":"  ","chunks":[{"content":"x","page":1}]}`,
		`{"document_id":"course","chunks":[]}`,
	}
	for _, body := range tests {
		w := env.do(http.MethodPost, "/documents", body, handler)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, w.Code)
		}
	}
}

func TestSheetsEndpointRejectsBadLimit(t *testing.T) {
	env := newTestEnv(t, "contexte")
	_, _, handler := NewSheetsEndpoint().Route()

	for _, limit := range []string{"abc", "0", "-3"} {
		w := env.do(http.MethodGet, "/sheets?limit="+limit, "", handler)
		if w.Code != http.StatusBadRequest {
			t.Errorf("limit %q: expected 400, got %d", limit, w.Code)
		}
	}
}

func TestPDFsEndpoint(t *testing.T) {
	env := newTestEnv(t, "contexte")

	content := []byte("%PDF-1.7 archived")
	if err := os.WriteFile(env.home.PDFPath("fiche_diodes.pdf"), content, 0o644); err != nil {
		t.Fatalf("failed to seed archive: %v", err)
	}

	_, _, handler := NewPDFsEndpoint().Route()

	req := httptest.NewRequest(http.MethodGet, "/pdfs/fiche_diodes.pdf", nil)
	req.SetPathValue("file", "fiche_diodes.pdf")
	req = req.WithContext(svcctx.WithServices(req.Context(), env.services))
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("expected application/pdf, got %q", ct)
	}
	if !bytes.Equal(w.Body.Bytes(), content) {
		t.Error("served bytes should match the archived PDF")
	}
}

func TestPDFsEndpointRejectsTraversal(t *testing.T) {
	env := newTestEnv(t, "contexte")
	_, _, handler := NewPDFsEndpoint().Route()

	tests := []struct {
		name string
		want int
	}{
		{"../config.yaml", http.StatusBadRequest},
		{"..", http.StatusBadRequest},
		{".hidden.pdf", http.StatusBadRequest},
		{"notes.txt", http.StatusBadRequest},
		{"absent.pdf", http.StatusNotFound},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/pdfs/x", nil)
		req.SetPathValue("file", tt.name)
		req = req.WithContext(svcctx.WithServices(req.Context(), env.services))
		w := httptest.NewRecorder()
		handler(w, req)

		if w.Code != tt.want {
			t.Errorf("file %q: expected %d, got %d", tt.name, tt.want, w.Code)
		}
	}
}

func TestAllEndpointsHaveRoutes(t *testing.T) {
	seen := map[string]bool{}
	for _, ep := range All() {
		method, path, handler := ep.Route()
		if method == "" || path == "" || handler == nil {
			t.Errorf("endpoint %T has an incomplete route", ep)
		}
		key := method + " " + path
		if seen[key] {
			t.Errorf("duplicate route %s", key)
		}
		seen[key] = true
	}
	if len(seen) != 9 {
		t.Errorf("expected 9 routes, got %d", len(seen))
	}
}
