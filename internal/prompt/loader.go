// Package prompt loads markdown prompt templates and serves them from a
// read-mostly cache populated at startup.
package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Template kinds and the files backing them.
var promptFiles = map[string]string{
	"free_chat":   "free_chat_prompt.md",
	"test_myself": "test_myself_prompt.md",
}

var placeholderRegex = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Loader parses "## section" markdown prompt files and formats them with
// {name} substitutions.
type Loader struct {
	dir    string
	logger *zap.Logger

	mu    sync.RWMutex
	cache map[string]map[string]string
}

// NewLoader creates a prompt loader rooted at dir.
func NewLoader(dir string, logger *zap.Logger) *Loader {
	return &Loader{
		dir:    dir,
		logger: logger,
		cache:  make(map[string]map[string]string),
	}
}

// Preload reads every known prompt file into the cache. Individual file
// failures are logged and skipped; lookups for those kinds return "".
func (l *Loader) Preload() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for kind, filename := range promptFiles {
		sections, err := l.loadFile(filename)
		if err != nil {
			l.logger.Warn("failed to preload prompt file",
				zap.String("kind", kind),
				zap.String("file", filename),
				zap.Error(err),
			)
			continue
		}
		l.cache[kind] = sections
		l.logger.Info("preloaded prompts",
			zap.String("kind", kind),
			zap.Int("sections", len(sections)),
		)
	}
}

// Reload re-reads all prompt files from disk.
func (l *Loader) Reload() {
	l.mu.Lock()
	l.cache = make(map[string]map[string]string)
	l.mu.Unlock()
	l.Preload()
}

// Get returns the formatted prompt for kind/section, or "" on any
// failure. A template referencing a substitution key that vars does not
// provide is returned unformatted with a logged warning.
func (l *Loader) Get(kind, section string, vars map[string]string) string {
	l.mu.RLock()
	sections, ok := l.cache[kind]
	l.mu.RUnlock()

	if !ok {
		filename, known := promptFiles[kind]
		if !known {
			l.logger.Error("unknown prompt kind", zap.String("kind", kind))
			return ""
		}
		loaded, err := l.loadFile(filename)
		if err != nil {
			l.logger.Error("failed to load prompt file",
				zap.String("kind", kind), zap.Error(err))
			return ""
		}
		l.mu.Lock()
		l.cache[kind] = loaded
		l.mu.Unlock()
		sections = loaded
	}

	text, ok := sections[strings.ToLower(section)]
	if !ok {
		l.logger.Warn("prompt section not found",
			zap.String("kind", kind),
			zap.String("section", section),
		)
		return ""
	}

	if len(vars) == 0 {
		return text
	}
	return l.format(kind, section, text, vars)
}

// format substitutes {name} placeholders. If any placeholder is missing
// from vars the template is returned as-is.
func (l *Loader) format(kind, section, text string, vars map[string]string) string {
	for _, m := range placeholderRegex.FindAllStringSubmatch(text, -1) {
		if _, ok := vars[m[1]]; !ok {
			l.logger.Warn("missing prompt substitution variable",
				zap.String("kind", kind),
				zap.String("section", section),
				zap.String("variable", m[1]),
			)
			return text
		}
	}

	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

func (l *Loader) loadFile(filename string) (map[string]string, error) {
	path := filepath.Join(l.dir, filename)
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read prompt file %s: %w", path, err)
	}
	return parseSections(string(data)), nil
}

// parseSections splits markdown into "## header" sections, keyed by the
// lowercased header text. "###" sub-headers stay inside their section body.
func parseSections(content string) map[string]string {
	sections := make(map[string]string)

	var current string
	var body []string

	flush := func() {
		if current == "" {
			return
		}
		text := strings.TrimSpace(strings.Join(body, "\n"))
		if text != "" {
			sections[strings.ToLower(current)] = text
		}
	}

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "## ") && !strings.HasPrefix(line, "###") {
			flush()
			current = strings.TrimSpace(line[3:])
			body = body[:0]
			continue
		}
		if current != "" {
			body = append(body, line)
		}
	}
	flush()

	return sections
}
