package domain

// SourceRef summarizes one retrieved chunk for the presentation layer.
// Optional fields are omitted entirely when absent on the chunk; their
// absence is informative.
type SourceRef struct {
	Index          int     `json:"index"`
	SourceID       string  `json:"source_id"`
	CourseID       string  `json:"course_id"`
	ChunkIndex     int     `json:"chunk_index"`
	RelevanceScore float64 `json:"relevance_score"`
	TextPreview    string  `json:"text_preview"`
	StartTime      string  `json:"start_time,omitempty"`
	EndTime        string  `json:"end_time,omitempty"`
	SectionTitle   string  `json:"section_title,omitempty"`
}

// ChatResult is the shape-stable response envelope for free chat.
// Every request identifier is echoed back; callers branch on Success only.
type ChatResult struct {
	ConversationID string      `json:"conversation_id"`
	History        []Message   `json:"conversation_history"`
	CourseID       string      `json:"course_id"`
	UserMessage    string      `json:"user_message"`
	Stage          string      `json:"stage"`
	FinalAnswer    string      `json:"final_answer"`
	Sources        []SourceRef `json:"sources"`
	Timestamp      string      `json:"timestamp"`
	Success        bool        `json:"success"`
	Error          string      `json:"error,omitempty"`
}

// HelpResult is the shape-stable response envelope for the tutoring mode.
type HelpResult struct {
	ConversationID string      `json:"conversation_id"`
	History        []Message   `json:"conversation_history"`
	Mode           string      `json:"mode"`
	Identifier     string      `json:"identifier"`
	Query          string      `json:"query"`
	Response       string      `json:"response"`
	Sources        []SourceRef `json:"sources"`
	Timestamp      string      `json:"timestamp"`
	Success        bool        `json:"success"`
	Error          string      `json:"error,omitempty"`
}
