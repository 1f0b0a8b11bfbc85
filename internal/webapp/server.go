package webapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"discharge-docgen/internal/docgen"
	"discharge-docgen/internal/extract"
	"discharge-docgen/internal/history"
	"discharge-docgen/internal/llm"
	"discharge-docgen/internal/record"
	"discharge-docgen/internal/synthesize"
)

const (
	maxUploadBytes = 16 << 20
	sessionCookie  = "discharge_session"
)

// PDFRenderer turns an HTML preview into a PDF. Optional; the server degrades
// to HTML-only previews when none is configured.
type PDFRenderer interface {
	Available() bool
	Render(ctx context.Context, htmlDoc string) ([]byte, error)
}

type Server struct {
	synth *synthesize.Synthesizer
	store RecordStore
	hist  *history.Log
	pdf   PDFRenderer
	now   func() time.Time
}

type Option func(*Server)

// WithHistory records each upload and generation in the given log.
func WithHistory(h *history.Log) Option {
	return func(s *Server) { s.hist = h }
}

// WithPDFRenderer enables the /review/preview.pdf endpoint.
func WithPDFRenderer(r PDFRenderer) Option {
	return func(s *Server) { s.pdf = r }
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func NewServer(synth *synthesize.Synthesizer, store RecordStore, opts ...Option) http.Handler {
	s := &Server{
		synth: synth,
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/upload", s.handleUpload)
	mux.HandleFunc("/review", s.handleReview)
	mux.HandleFunc("/review/preview", s.handlePreview)
	mux.HandleFunc("/review/preview.pdf", s.handlePreviewPDF)
	mux.HandleFunc("/history", s.handleHistory)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+4096)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, 400, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, 400, "file field is required")
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		writeError(w, 400, "only PDF uploads are accepted")
		return
	}

	tmp, err := os.CreateTemp("", "discharge-*.pdf")
	if err != nil {
		writeError(w, 500, "failed to save uploaded file")
		return
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		writeError(w, 500, "failed to write uploaded file")
		return
	}
	tmp.Close()

	start := s.now()
	rec, err := s.synth.FromPDF(r.Context(), tmp.Name())
	if err != nil {
		log.Printf("synthesize %s: %v", header.Filename, err)
		s.record(history.StageSynthesize, history.StatusError, err.Error(), s.now().Sub(start), "")
		writeError(w, statusForError(err), err.Error())
		return
	}

	token := newToken()
	s.store.Set(token, rec)
	s.record(history.StageSynthesize, history.StatusOK, header.Filename, s.now().Sub(start), token)

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, 200, map[string]any{
		"token":  token,
		"status": "review",
		"record": rec,
	})
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleReviewGet(w, r)
	case http.MethodPost:
		s.handleGenerate(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleReviewGet(w http.ResponseWriter, r *http.Request) {
	token, rec, ok := s.sessionRecord(r)
	if !ok {
		writeError(w, 404, "no record under review; upload a PDF first")
		return
	}
	writeJSON(w, 200, map[string]any{
		"token":  token,
		"record": rec,
	})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	token, rec, ok := s.sessionRecord(r)
	if !ok {
		writeError(w, 404, "no record under review; upload a PDF first")
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, 400, "invalid form submission")
		return
	}

	edited := record.Reconcile(rec, r.PostForm)
	if err := record.Validate(edited); err != nil {
		// Session survives so the reviewer can fix the form and retry.
		writeError(w, 400, err.Error())
		return
	}

	start := s.now()
	blob, err := docgen.Render(docgen.BuildContext(edited, start))
	if err != nil {
		log.Printf("render docx for %s: %v", token, err)
		s.record(history.StageGenerate, history.StatusError, err.Error(), s.now().Sub(start), token)
		writeError(w, 500, "failed to render document")
		return
	}

	filename := docgen.Filename(edited, start)
	s.record(history.StageGenerate, history.StatusOK, filename, s.now().Sub(start), token)
	s.store.Set(token, edited)

	w.Header().Set("Content-Type", docgen.MIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(200)
	_, _ = w.Write(blob)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	_, rec, ok := s.sessionRecord(r)
	if !ok {
		writeError(w, 404, "no record under review; upload a PDF first")
		return
	}
	html, err := docgen.SummaryHTML(rec, s.now())
	if err != nil {
		writeError(w, 500, "failed to render preview")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, html)
}

func (s *Server) handlePreviewPDF(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.pdf == nil || !s.pdf.Available() {
		writeError(w, 503, "pdf preview is not available on this host")
		return
	}
	_, rec, ok := s.sessionRecord(r)
	if !ok {
		writeError(w, 404, "no record under review; upload a PDF first")
		return
	}
	html, err := docgen.SummaryHTML(rec, s.now())
	if err != nil {
		writeError(w, 500, "failed to render preview")
		return
	}
	blob, err := s.pdf.Render(r.Context(), html)
	if err != nil {
		log.Printf("pdf preview: %v", err)
		writeError(w, 502, "failed to print preview to PDF")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename=\"preview.pdf\"")
	_, _ = w.Write(blob)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	runs, err := s.hist.Recent(50)
	if err != nil {
		writeError(w, 500, "failed to read run history")
		return
	}
	if runs == nil {
		runs = []history.Entry{}
	}
	writeJSON(w, 200, map[string]any{"runs": runs})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]any{"status": "ok"})
}

// sessionRecord resolves the review session from the cookie, falling back to
// an explicit token query parameter for cookie-less clients.
func (s *Server) sessionRecord(r *http.Request) (string, record.StructuredRecord, bool) {
	token := ""
	if c, err := r.Cookie(sessionCookie); err == nil {
		token = c.Value
	}
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return "", record.StructuredRecord{}, false
	}
	rec, ok := s.store.Get(token)
	return token, rec, ok
}

func (s *Server) record(stage, status, detail string, elapsed time.Duration, token string) {
	if err := s.hist.Record(token, stage, status, detail, elapsed); err != nil {
		log.Printf("history: %v", err)
	}
}

func statusForError(err error) int {
	var ee *extract.Error
	if errors.As(err, &ee) {
		return 400
	}
	var le *llm.Error
	if errors.As(err, &le) {
		if le.Kind == llm.KindCredential {
			return 500
		}
		return 502
	}
	return 500
}
