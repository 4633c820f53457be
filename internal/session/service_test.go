package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/sessionsync/internal/locator"
	"github.com/MikeSquared-Agency/sessionsync/internal/transcript"
	"github.com/MikeSquared-Agency/sessionsync/internal/workspace"
)

type fakePublisher struct {
	subject string
	got     []TranscriptExtracted
	err     error
}

func (f *fakePublisher) Publish(subject string, data any) error {
	if f.err != nil {
		return f.err
	}
	f.subject = subject
	f.got = append(f.got, data.(TranscriptExtracted))
	return nil
}

type fakeArchive struct {
	got []TranscriptExtracted
	err error
}

func (f *fakeArchive) SaveTranscript(_ context.Context, t TranscriptExtracted) (uuid.UUID, error) {
	if f.err != nil {
		return uuid.Nil, f.err
	}
	f.got = append(f.got, t)
	return t.ID, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newFixture writes one transcript for workspace /home/dev/project and
// returns a Service reading from it.
func newFixture(t *testing.T, opts ...Option) *Service {
	t.Helper()
	projectsDir := t.TempDir()
	dir := filepath.Join(projectsDir, "-home-dev-project")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	body := `{"type":"user","message":{"content":"Hello"}}` + "\n" +
		`{"type":"assistant","message":{"content":[{"type":"text","text":"Hi there"}]}}` + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sess-1.jsonl"), []byte(body), 0o644))

	loc := locator.New(projectsDir, workspace.Static("/home/dev/project"))
	svc := New(loc, transcript.New(), discardLogger(), opts...)
	svc.now = func() time.Time { return time.Date(2026, 2, 11, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestExtract(t *testing.T) {
	svc := newFixture(t)

	got, err := svc.Extract(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "USER: Hello\n\nCLAUDE: Hi there\n", got.Text)
	assert.Equal(t, "sess-1", got.SessionID)
	assert.Equal(t, "-home-dev-project", got.ProjectKey)
	assert.Equal(t, 2, got.Lines)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, time.Date(2026, 2, 11, 10, 0, 0, 0, time.UTC), got.ExtractedAt)
}

func TestExtract_PropagatesLocatorErrors(t *testing.T) {
	svc := newFixture(t)

	_, err := svc.Extract(context.Background(), "missing")
	assert.ErrorIs(t, err, locator.ErrTranscriptNotFound)
}

func TestExtract_MalformedRecord(t *testing.T) {
	projectsDir := t.TempDir()
	dir := filepath.Join(projectsDir, "-repo")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.jsonl"), []byte("{oops\n"), 0o644))

	svc := New(locator.New(projectsDir, workspace.Static("/repo")), transcript.New(), discardLogger())
	_, err := svc.Extract(context.Background(), "bad")
	require.Error(t, err)
	assert.ErrorIs(t, err, transcript.ErrMalformedRecord)
	assert.Contains(t, err.Error(), "bad.jsonl")
}

func TestSync_NoSinks(t *testing.T) {
	svc := newFixture(t)

	got, err := svc.Extract(context.Background(), "")
	require.NoError(t, err)
	assert.NoError(t, svc.Sync(context.Background(), got))
}

func TestSync_PublishesAndArchives(t *testing.T) {
	pub := &fakePublisher{}
	arc := &fakeArchive{}
	svc := newFixture(t, WithPublisher(pub, "swarm.test.extracted"), WithArchive(arc))

	got, err := svc.Extract(context.Background(), "sess-1")
	require.NoError(t, err)
	require.NoError(t, svc.Sync(context.Background(), got))

	assert.Equal(t, "swarm.test.extracted", pub.subject)
	require.Len(t, pub.got, 1)
	assert.Equal(t, got, pub.got[0])
	require.Len(t, arc.got, 1)
	assert.Equal(t, got.ID, arc.got[0].ID)
}

func TestSync_PublishFailureStopsArchive(t *testing.T) {
	pub := &fakePublisher{err: errors.New("nats down")}
	arc := &fakeArchive{}
	svc := newFixture(t, WithPublisher(pub, "s"), WithArchive(arc))

	got, err := svc.Extract(context.Background(), "")
	require.NoError(t, err)

	err = svc.Sync(context.Background(), got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish: nats down")
	assert.Empty(t, arc.got)
}

func TestSync_ArchiveFailure(t *testing.T) {
	arc := &fakeArchive{err: errors.New("db down")}
	svc := newFixture(t, WithArchive(arc))

	got, err := svc.Extract(context.Background(), "")
	require.NoError(t, err)

	err = svc.Sync(context.Background(), got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archive: db down")
}
