// Package tutor is the self-test tutoring orchestrator. It shares the
// retrieve, compose, invoke, append skeleton with free chat but selects
// retrieval scope by an explicit mode flag and uses a Socratic persona
// loaded from the prompt store instead of answering directly.
package tutor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/learnstack/coursechat/internal/domain"
	"github.com/learnstack/coursechat/internal/logger"
)

// Tutoring modes.
const (
	// ModeLecture scopes retrieval to a single source (lecture file).
	ModeLecture = "lecture"
	// ModeFullCourse scopes retrieval to an entire course with a wider
	// candidate window.
	ModeFullCourse = "full_course"
)

const (
	lectureTopK    = 5
	fullCourseTopK = 8
	temperature    = 0.4
	maxTokens      = 8000

	promptKind = "test_myself"
)

const noContentResponse = "לא נמצא תוכן רלוונטי לשאלתך"

// Request carries one tutoring turn.
type Request struct {
	ConversationID string
	History        []domain.Message
	Mode           string
	Identifier     string // source_id for lecture, course_id for full_course
	Query          string
}

// Service orchestrates tutoring help generation.
type Service struct {
	retriever Retriever
	completer Completer
	prompts   PromptStore
	now       func() time.Time
}

// New creates a tutoring orchestrator.
func New(retriever Retriever, completer Completer, prompts PromptStore) *Service {
	return &Service{
		retriever: retriever,
		completer: completer,
		prompts:   prompts,
		now:       time.Now,
	}
}

// GetHelp runs one tutoring turn. An unrecognized mode is rejected
// before any retrieval happens; every other failure degrades to a
// success=false envelope with the input history echoed unmodified.
func (s *Service) GetHelp(ctx context.Context, req Request) domain.HelpResult {
	if req.Mode != ModeLecture && req.Mode != ModeFullCourse {
		return s.failure(req, fmt.Sprintf(
			"מצב לא תקין: %s. השתמש ב-'%s' או '%s'", req.Mode, ModeLecture, ModeFullCourse,
		), domain.ErrInvalidMode.Error())
	}

	result, err := s.help(ctx, req)
	if err != nil {
		logger.FromContext(ctx).Error("tutoring help failed",
			zap.String("conversation_id", req.ConversationID),
			zap.String("mode", req.Mode),
			zap.Error(err),
		)
		return s.failure(req, err.Error(), err.Error())
	}
	return result
}

func (s *Service) help(ctx context.Context, req Request) (domain.HelpResult, error) {
	var chunks []domain.Chunk
	switch req.Mode {
	case ModeLecture:
		chunks = s.retriever.SemanticSearch(ctx, req.Query, lectureTopK, req.Identifier, "")
	case ModeFullCourse:
		chunks = s.retriever.SemanticSearch(ctx, req.Query, fullCourseTopK, "", req.Identifier)
	}

	if len(chunks) == 0 {
		logger.FromContext(ctx).Warn("no relevant content for tutoring query",
			zap.String("mode", req.Mode),
			zap.String("identifier", req.Identifier),
		)
		result := s.failure(req, noContentResponse, "no relevant content found")
		return result, nil
	}

	contextBlock := domain.BuildContext(chunks)

	system := s.prompts.Get(promptKind, "system", nil)
	userContent := s.prompts.Get(promptKind, "user", map[string]string{
		"context": contextBlock,
		"query":   req.Query,
	})
	if userContent == "" {
		// Template store failed entirely; fall back to the literal
		// free-chat shape so the turn still works.
		userContent = fmt.Sprintf("User query: %s\n\nRelevant context:\n%s", req.Query, contextBlock)
	}

	messages := make([]domain.Message, 0, len(req.History)+2)
	messages = append(messages, domain.Message{Role: domain.RoleSystem, Content: system})
	for _, m := range req.History {
		messages = append(messages, domain.Message{
			Role:    domain.SanitizeRole(m.Role),
			Content: m.Content,
		})
	}
	messages = append(messages, domain.Message{Role: domain.RoleUser, Content: userContent})

	answer, err := s.completer.Complete(ctx, messages, temperature, maxTokens)
	if err != nil {
		return domain.HelpResult{}, fmt.Errorf("tutoring help: %w", err)
	}
	answer = strings.TrimSpace(answer)

	return domain.HelpResult{
		ConversationID: req.ConversationID,
		History:        domain.AppendExchange(req.History, userContent, answer, s.now()),
		Mode:           req.Mode,
		Identifier:     req.Identifier,
		Query:          req.Query,
		Response:       answer,
		Sources:        domain.ExtractSources(chunks),
		Timestamp:      domain.NewTimestamp(s.now()),
		Success:        true,
	}, nil
}

func (s *Service) failure(req Request, response, errText string) domain.HelpResult {
	return domain.HelpResult{
		ConversationID: req.ConversationID,
		History:        req.History,
		Mode:           req.Mode,
		Identifier:     req.Identifier,
		Query:          req.Query,
		Response:       response,
		Sources:        []domain.SourceRef{},
		Timestamp:      domain.NewTimestamp(s.now()),
		Success:        false,
		Error:          errText,
	}
}
