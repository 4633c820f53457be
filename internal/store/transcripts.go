package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/sessionsync/internal/session"
)

// ErrNotFound indicates no archived transcript exists for a session.
var ErrNotFound = errors.New("transcript not archived")

// SaveTranscript upserts the latest extraction for a session. Re-extracting
// a session keeps its original row id.
func (s *Store) SaveTranscript(ctx context.Context, t session.TranscriptExtracted) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx, `
		INSERT INTO session_transcripts (id, session_id, project_key, source_path, body, line_count, extracted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (session_id) DO UPDATE SET
			project_key  = EXCLUDED.project_key,
			source_path  = EXCLUDED.source_path,
			body         = EXCLUDED.body,
			line_count   = EXCLUDED.line_count,
			extracted_at = EXCLUDED.extracted_at
		RETURNING id`,
		t.ID, t.SessionID, t.ProjectKey, t.SourcePath, t.Text, t.Lines, t.ExtractedAt,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("upsert transcript: %w", err)
	}
	return id, nil
}

// GetTranscript returns the archived extraction for sessionID.
func (s *Store) GetTranscript(ctx context.Context, sessionID string) (session.TranscriptExtracted, error) {
	var t session.TranscriptExtracted
	err := s.pool.QueryRow(ctx, `
		SELECT id, session_id, project_key, source_path, body, line_count, extracted_at
		FROM session_transcripts
		WHERE session_id = $1`,
		sessionID,
	).Scan(&t.ID, &t.SessionID, &t.ProjectKey, &t.SourcePath, &t.Text, &t.Lines, &t.ExtractedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return session.TranscriptExtracted{}, ErrNotFound
	}
	if err != nil {
		return session.TranscriptExtracted{}, fmt.Errorf("get transcript: %w", err)
	}
	return t, nil
}
