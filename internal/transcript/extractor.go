// Package transcript turns a Claude Code session transcript into plain,
// speaker-labelled conversation text.
//
// Only user and assistant text is kept. Tool calls, tool results, images,
// thinking blocks, progress events, file snapshots and <system-reminder>
// spans are dropped.
package transcript

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrMalformedRecord indicates a transcript line is not a JSON object.
var ErrMalformedRecord = errors.New("malformed transcript record")

// Speaker labels an output line.
type Speaker string

const (
	SpeakerUser   Speaker = "USER"
	SpeakerClaude Speaker = "CLAUDE"
)

// Line is one rendered unit of conversation.
type Line struct {
	Speaker Speaker
	Text    string
}

func (l Line) String() string {
	return string(l.Speaker) + ": " + l.Text
}

// Extractor parses transcripts into Lines.
type Extractor struct {
	skipMalformed bool
	logger        *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithSkipMalformed logs and skips undecodable lines instead of failing.
func WithSkipMalformed(skip bool) Option {
	return func(e *Extractor) {
		e.skipMalformed = skip
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

func New(opts ...Option) *Extractor {
	e := &Extractor{logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract renders the transcript at path with a default Extractor.
func Extract(path string) (string, error) {
	return New().Extract(path)
}

// Extract reads and renders the transcript at path.
func (e *Extractor) Extract(path string) (string, error) {
	lines, err := e.ReadLines(path)
	if err != nil {
		return "", err
	}
	return Render(lines), nil
}

// ReadLines loads the whole file, releasing it before any record is
// processed, and parses it.
func (e *Extractor) ReadLines(path string) ([]Line, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	return e.Parse(data)
}

// Parse walks data line by line in file order and returns the surviving
// conversation lines.
func (e *Extractor) Parse(data []byte) ([]Line, error) {
	var out []Line
	lineNo := 0
	for len(data) > 0 {
		var raw []byte
		raw, data, _ = bytes.Cut(data, []byte{'\n'})
		lineNo++

		raw = bytes.TrimSuffix(raw, []byte{'\r'})
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}

		lines, err := parseLine(raw)
		if err != nil {
			if e.skipMalformed {
				e.logger.Warn("skipping malformed record", "line", lineNo, "error", err)
				continue
			}
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		out = append(out, lines...)
	}
	return out, nil
}

func parseLine(raw []byte) ([]Line, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedRecord)
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: not an object", ErrMalformedRecord)
	}

	// Peek at the type so progress events and file snapshots, which can be
	// large, are never fully decoded.
	var speaker Speaker
	switch recordType(doc) {
	case TypeUser:
		speaker = SpeakerUser
	case TypeAssistant:
		speaker = SpeakerClaude
	default:
		return nil, nil
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	if rec.Message == nil {
		return nil, nil
	}

	var lines []Line
	for _, text := range rec.Message.Content.texts(speaker == SpeakerUser) {
		cleaned := Sanitize(text)
		if cleaned == "" {
			continue
		}
		lines = append(lines, Line{Speaker: speaker, Text: cleaned})
	}
	return lines, nil
}

// recordType returns the top-level "type" value. With duplicate keys the
// last one wins, matching what json.Unmarshal decodes.
func recordType(doc gjson.Result) string {
	var typ string
	doc.ForEach(func(key, value gjson.Result) bool {
		if key.String() == "type" {
			typ = value.String()
		}
		return true
	})
	return typ
}

// Render formats lines as "LABEL: text" entries, each followed by a blank
// line, joined with newlines.
func Render(lines []Line) string {
	parts := make([]string, 0, 2*len(lines))
	for _, l := range lines {
		parts = append(parts, l.String(), "")
	}
	return strings.Join(parts, "\n")
}
