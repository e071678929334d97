// Package chat is the conversational RAG orchestrator: it retrieves
// context chunks for the user message, composes the model request from
// persona, history and context, and returns the answer together with the
// extended conversation history. Every call is stateless given its
// inputs; the caller owns history persistence.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/learnstack/coursechat/internal/domain"
	"github.com/learnstack/coursechat/internal/logger"
)

// Defaults for free chat generation.
const (
	DefaultTopK        = 5
	DefaultTemperature = 0.3
	defaultMaxTokens   = 10000
)

// userTemplate is the literal content of the new user turn sent to the
// model. The same text is appended to history so that history is a
// faithful replay log of what the model saw.
const userTemplate = "User query: %s\n\nRelevant context:\n%s"

// noContentAnswer is the localized answer returned when retrieval finds
// nothing relevant. The corpus is Hebrew; so is the user-facing text.
const noContentAnswer = "מצטער, לא מצאתי מידע רלוונטי לשאלתך במאגר הידע. אנא נסה לנסח את השאלה בצורה אחרת."

const systemPersona = `You are an expert AI assistant that answers questions based on provided information.

Your role:
- Answer in Hebrew accurately and helpfully
- Base answers only on the information provided in the context and do not invent information that doesn't exist in the sources
- Organize answers clearly and understandably
- Mention if information is insufficient for a complete answer

Response style:
- Respond like an encouraging and interactive chatbot, not just a static answer
- Use a friendly and pedagogical tone to support learning and exploration
- Clear and professional
- Structured and organized
- Suitable for students and learners
- Include examples when relevant`

// Request carries one free-chat turn.
type Request struct {
	ConversationID string
	History        []domain.Message
	CourseID       string
	UserMessage    string
	Stage          string
	SourceID       string
	TopK           int
	Temperature    float32
}

// Service orchestrates free-chat answer generation.
type Service struct {
	retriever Retriever
	completer Completer
	syllabi   SyllabusReader
	now       func() time.Time
}

// New creates a chat orchestrator.
func New(retriever Retriever, completer Completer, syllabi SyllabusReader) *Service {
	return &Service{
		retriever: retriever,
		completer: completer,
		syllabi:   syllabi,
		now:       time.Now,
	}
}

// GenerateAnswer runs one RAG turn. The result envelope is shape-stable:
// any failure yields success=false with the input history echoed
// unmodified, never a raised error.
func (s *Service) GenerateAnswer(ctx context.Context, req Request) domain.ChatResult {
	if req.TopK <= 0 {
		req.TopK = DefaultTopK
	}
	if req.Temperature <= 0 {
		req.Temperature = DefaultTemperature
	}

	result, err := s.generate(ctx, req)
	if err != nil {
		logger.FromContext(ctx).Error("answer generation failed",
			zap.String("conversation_id", req.ConversationID),
			zap.Error(err),
		)
		return s.failure(req, err.Error())
	}
	return result
}

func (s *Service) generate(ctx context.Context, req Request) (domain.ChatResult, error) {
	log := logger.FromContext(ctx)

	syllabus := s.loadSyllabus(ctx, req.CourseID)

	chunks := s.retriever.SearchWithContext(ctx, req.UserMessage, req.TopK, req.SourceID, req.CourseID)
	if len(chunks) == 0 {
		log.Warn("no relevant content found",
			zap.String("course_id", req.CourseID),
			zap.String("query", req.UserMessage),
		)
		result := s.failure(req, "no relevant content found")
		result.FinalAnswer = noContentAnswer
		return result, nil
	}

	contextBlock := domain.BuildContext(chunks)
	userContent := fmt.Sprintf(userTemplate, req.UserMessage, contextBlock)
	messages := composeMessages(syllabus, req.History, userContent)

	answer, err := s.completer.Complete(ctx, messages, req.Temperature, defaultMaxTokens)
	if err != nil {
		return domain.ChatResult{}, fmt.Errorf("generate answer: %w", err)
	}
	answer = strings.TrimSpace(answer)

	return domain.ChatResult{
		ConversationID: req.ConversationID,
		History:        domain.AppendExchange(req.History, userContent, answer, s.now()),
		CourseID:       req.CourseID,
		UserMessage:    req.UserMessage,
		Stage:          req.Stage,
		FinalAnswer:    answer,
		Sources:        domain.ExtractSources(chunks),
		Timestamp:      domain.NewTimestamp(s.now()),
		Success:        true,
	}, nil
}

// loadSyllabus fetches the optional course syllabus. Absence (or any
// storage failure) is non-fatal and yields an empty string.
func (s *Service) loadSyllabus(ctx context.Context, courseID string) string {
	data, err := s.syllabi.Get(ctx, courseID)
	if err != nil {
		logger.FromContext(ctx).Warn("syllabus unavailable",
			zap.String("course_id", courseID),
			zap.Error(err),
		)
		return ""
	}
	return string(data)
}

// composeMessages builds the outgoing sequence: one system message
// (persona plus optional syllabus appendix), every prior history turn
// with its role sanitized, then the new context-bearing user message.
func composeMessages(syllabus string, history []domain.Message, userContent string) []domain.Message {
	system := systemPersona
	if syllabus != "" {
		system += "\n\nCourse syllabus:\n" + syllabus
	}

	messages := make([]domain.Message, 0, len(history)+2)
	messages = append(messages, domain.Message{Role: domain.RoleSystem, Content: system})
	for _, m := range history {
		messages = append(messages, domain.Message{
			Role:    domain.SanitizeRole(m.Role),
			Content: m.Content,
		})
	}
	messages = append(messages, domain.Message{Role: domain.RoleUser, Content: userContent})
	return messages
}

// failure builds the shape-stable failure envelope: identifiers echoed,
// input history untouched, empty sources.
func (s *Service) failure(req Request, errText string) domain.ChatResult {
	return domain.ChatResult{
		ConversationID: req.ConversationID,
		History:        req.History,
		CourseID:       req.CourseID,
		UserMessage:    req.UserMessage,
		Stage:          req.Stage,
		FinalAnswer:    errText,
		Sources:        []domain.SourceRef{},
		Timestamp:      domain.NewTimestamp(s.now()),
		Success:        false,
		Error:          errText,
	}
}
