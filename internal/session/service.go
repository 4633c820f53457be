// Package session runs one extraction end to end: locate the transcript,
// render it, then hand the result to the optional event bus and archive.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/sessionsync/internal/locator"
	"github.com/MikeSquared-Agency/sessionsync/internal/transcript"
)

// TranscriptExtracted is published and archived after every extraction.
type TranscriptExtracted struct {
	ID          uuid.UUID `json:"id"`
	SessionID   string    `json:"session_id"`
	ProjectKey  string    `json:"project_key"`
	SourcePath  string    `json:"source_path"`
	Text        string    `json:"text"`
	Lines       int       `json:"lines"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// Locator finds the transcript file for a session.
type Locator interface {
	Locate(ctx context.Context, sessionID string) (string, error)
}

// Reader turns a transcript file into conversation lines.
type Reader interface {
	ReadLines(path string) ([]transcript.Line, error)
}

// Publisher sends an event to the bus.
type Publisher interface {
	Publish(subject string, data any) error
}

// Archive persists extractions.
type Archive interface {
	SaveTranscript(ctx context.Context, t TranscriptExtracted) (uuid.UUID, error)
}

// Service composes the core pipeline with its optional sinks.
type Service struct {
	locator   Locator
	reader    Reader
	publisher Publisher
	subject   string
	archive   Archive
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithPublisher(p Publisher, subject string) Option {
	return func(s *Service) {
		s.publisher = p
		s.subject = subject
	}
}

func WithArchive(a Archive) Option {
	return func(s *Service) {
		s.archive = a
	}
}

func New(l Locator, r Reader, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		locator: l,
		reader:  r,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Extract locates and renders a transcript without touching any sink.
func (s *Service) Extract(ctx context.Context, sessionID string) (TranscriptExtracted, error) {
	path, err := s.locator.Locate(ctx, sessionID)
	if err != nil {
		return TranscriptExtracted{}, err
	}
	s.logger.Debug("transcript located", "path", path)

	lines, err := s.reader.ReadLines(path)
	if err != nil {
		return TranscriptExtracted{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	dir := filepath.Dir(path)
	return TranscriptExtracted{
		ID:          uuid.New(),
		SessionID:   strings.TrimSuffix(filepath.Base(path), locator.Ext),
		ProjectKey:  filepath.Base(dir),
		SourcePath:  path,
		Text:        transcript.Render(lines),
		Lines:       len(lines),
		ExtractedAt: s.now(),
	}, nil
}

// Sync delivers an extraction to the configured sinks. The event is
// published before it is archived; the first failure is returned.
func (s *Service) Sync(ctx context.Context, t TranscriptExtracted) error {
	if s.publisher != nil {
		if err := s.publisher.Publish(s.subject, t); err != nil {
			return fmt.Errorf("publish: %w", err)
		}
		s.logger.Info("transcript published", "session_id", t.SessionID, "subject", s.subject)
	}

	if s.archive != nil {
		id, err := s.archive.SaveTranscript(ctx, t)
		if err != nil {
			return fmt.Errorf("archive: %w", err)
		}
		s.logger.Info("transcript archived", "session_id", t.SessionID, "id", id)
	}
	return nil
}
