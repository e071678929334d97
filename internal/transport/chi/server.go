// Package chi exposes the HTTP API: conversational endpoints, direct
// retrieval access, index status, syllabus administration, and health.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/learnstack/coursechat/internal/domain"
	"github.com/learnstack/coursechat/internal/domain/search/mode"
	chatuc "github.com/learnstack/coursechat/internal/usecase/chat"
	healthuc "github.com/learnstack/coursechat/internal/usecase/health"
	"github.com/learnstack/coursechat/internal/usecase/retrieval"
	tutoruc "github.com/learnstack/coursechat/internal/usecase/tutor"
	"github.com/learnstack/coursechat/internal/version"
)

// maxSyllabusBytes caps the accepted syllabus upload size.
const maxSyllabusBytes = 1 << 20

// ChatService generates free-chat answers.
type ChatService interface {
	GenerateAnswer(ctx context.Context, req chatuc.Request) domain.ChatResult
}

// TutorService generates tutoring help.
type TutorService interface {
	GetHelp(ctx context.Context, req tutoruc.Request) domain.HelpResult
}

// RetrievalService is the direct search surface.
type RetrievalService interface {
	TextSearch(ctx context.Context, query string, topK int, sourceID, courseID string) []domain.Chunk
	HybridSearch(ctx context.Context, query string, topK int, sourceID, courseID string) []domain.Chunk
	SemanticSearch(ctx context.Context, query string, topK int, sourceID, courseID string) []domain.Chunk
	SearchWithContext(ctx context.Context, query string, k int, sourceID, courseID string) []domain.Chunk
	Status(ctx context.Context) retrieval.IndexStatus
}

// SyllabusWriter stores course syllabi.
type SyllabusWriter interface {
	Put(ctx context.Context, courseID string, data []byte) error
}

// HealthService reports component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// Server holds the HTTP handlers.
type Server struct {
	chat    ChatService
	tutor   TutorService
	search  RetrievalService
	syllabi SyllabusWriter
	health  HealthService
	logger  *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	chat ChatService,
	tutor TutorService,
	search RetrievalService,
	syllabi SyllabusWriter,
	health HealthService,
	logger *zap.Logger,
) *Server {
	return &Server{
		chat:    chat,
		tutor:   tutor,
		search:  search,
		syllabi: syllabi,
		health:  health,
		logger:  logger,
	}
}

// Routes mounts every endpoint on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/", s.Root)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Post("/free-chat", s.FreeChat)
	r.Post("/test_myself", s.TestMyself)
	r.Post("/search", s.Search)
	r.Get("/index/status", s.IndexStatus)
	r.Put("/courses/{courseID}/syllabus", s.PutSyllabus)
}

type freeChatRequest struct {
	ConversationID string           `json:"conversation_id"`
	History        []domain.Message `json:"conversation_history"`
	CourseID       string           `json:"course_id"`
	UserMessage    string           `json:"user_message"`
	Stage          string           `json:"stage"`
	SourceID       string           `json:"source_id,omitempty"`
	TopK           int              `json:"top_k,omitempty"`
	Temperature    float32          `json:"temperature,omitempty"`
}

// FreeChat handles POST /free-chat.
func (s *Server) FreeChat(w http.ResponseWriter, r *http.Request) {
	var req freeChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if msg, ok := requireFields(map[string]string{
		"conversation_id": req.ConversationID,
		"course_id":       req.CourseID,
		"user_message":    req.UserMessage,
		"stage":           req.Stage,
	}); !ok {
		writeError(w, http.StatusBadRequest, codeValidationFailed, msg)
		return
	}

	result := s.chat.GenerateAnswer(r.Context(), chatuc.Request{
		ConversationID: req.ConversationID,
		History:        req.History,
		CourseID:       req.CourseID,
		UserMessage:    req.UserMessage,
		Stage:          req.Stage,
		SourceID:       req.SourceID,
		TopK:           req.TopK,
		Temperature:    req.Temperature,
	})

	writeJSON(w, http.StatusOK, result)
}

type assistantRequest struct {
	ConversationID string           `json:"conversation_id"`
	History        []domain.Message `json:"conversation_history"`
	Mode           string           `json:"mode"`
	Identifier     string           `json:"identifier"`
	Query          string           `json:"query"`
}

// TestMyself handles POST /test_myself.
func (s *Server) TestMyself(w http.ResponseWriter, r *http.Request) {
	var req assistantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if msg, ok := requireFields(map[string]string{
		"conversation_id": req.ConversationID,
		"mode":            req.Mode,
		"identifier":      req.Identifier,
		"query":           req.Query,
	}); !ok {
		writeError(w, http.StatusBadRequest, codeValidationFailed, msg)
		return
	}
	if req.Mode != tutoruc.ModeLecture && req.Mode != tutoruc.ModeFullCourse {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			"mode must be '"+tutoruc.ModeLecture+"' or '"+tutoruc.ModeFullCourse+"'")
		return
	}

	result := s.tutor.GetHelp(r.Context(), tutoruc.Request{
		ConversationID: req.ConversationID,
		History:        req.History,
		Mode:           req.Mode,
		Identifier:     req.Identifier,
		Query:          req.Query,
	})

	writeJSON(w, http.StatusOK, result)
}

type searchRequest struct {
	Query       string `json:"query"`
	Mode        string `json:"mode,omitempty"`
	TopK        int    `json:"top_k,omitempty"`
	SourceID    string `json:"source_id,omitempty"`
	CourseID    string `json:"course_id,omitempty"`
	WithContext bool   `json:"with_context,omitempty"`
}

type searchResponse struct {
	Results []domain.SourceRef `json:"results"`
	Count   int                `json:"count"`
}

// Search handles POST /search, the direct retrieval-engine surface.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Query == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "query is required")
		return
	}
	if req.TopK <= 0 {
		req.TopK = chatuc.DefaultTopK
	}

	m := mode.Semantic
	if req.Mode != "" {
		m = mode.Mode(req.Mode)
		if !m.IsValid() {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "unknown search mode: "+req.Mode)
			return
		}
	}

	var chunks []domain.Chunk
	switch {
	case req.WithContext:
		chunks = s.search.SearchWithContext(r.Context(), req.Query, req.TopK, req.SourceID, req.CourseID)
	case m == mode.Text:
		chunks = s.search.TextSearch(r.Context(), req.Query, req.TopK, req.SourceID, req.CourseID)
	case m == mode.Hybrid:
		chunks = s.search.HybridSearch(r.Context(), req.Query, req.TopK, req.SourceID, req.CourseID)
	default:
		chunks = s.search.SemanticSearch(r.Context(), req.Query, req.TopK, req.SourceID, req.CourseID)
	}

	results := domain.ExtractSources(chunks)
	writeJSON(w, http.StatusOK, searchResponse{Results: results, Count: len(results)})
}

// IndexStatus handles GET /index/status.
func (s *Server) IndexStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.search.Status(r.Context()))
}

// PutSyllabus handles PUT /courses/{courseID}/syllabus.
func (s *Server) PutSyllabus(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")
	if courseID == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "course id is required")
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxSyllabusBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "failed to read request body")
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "syllabus body is empty")
		return
	}
	if len(data) > maxSyllabusBytes {
		writeError(w, http.StatusRequestEntityTooLarge, codeValidationFailed, "syllabus too large")
		return
	}

	if err := s.syllabi.Put(r.Context(), courseID, data); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// Root handles GET /.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "coursechat",
		"version": version.Version,
		"status":  "running",
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// requireFields reports the first empty required field.
func requireFields(fields map[string]string) (string, bool) {
	// Deterministic order for stable error messages.
	order := []string{"conversation_id", "course_id", "user_message", "stage", "mode", "identifier", "query"}
	for _, name := range order {
		if v, present := fields[name]; present && v == "" {
			return name + " is required", false
		}
	}
	return "", true
}

// Error response codes.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeNotFound         = "not_found"
	codeInternalError    = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, domain.ErrNotFound.Error())
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidMode):
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
	default:
		s.logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
