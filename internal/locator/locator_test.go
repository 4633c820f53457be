package locator

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/sessionsync/internal/workspace"
)

const root = "/home/dev/project"

// setupProject creates <projectsDir>/-home-dev-project and returns both paths.
func setupProject(t *testing.T) (projectsDir, sessionDir string) {
	t.Helper()
	projectsDir = t.TempDir()
	sessionDir = filepath.Join(projectsDir, ProjectKey(root))
	require.NoError(t, os.MkdirAll(sessionDir, 0o755))
	return projectsDir, sessionDir
}

func touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestProjectKey(t *testing.T) {
	tests := []struct {
		root string
		want string
	}{
		{"/a/b", "-a-b"},
		{"/home/dev/my.project", "-home-dev-my.project"},
		{"/", "-"},
		{"relative/dir", "relative-dir"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ProjectKey(tt.root), "root %q", tt.root)
	}
}

func TestLocate_MostRecent(t *testing.T) {
	projectsDir, dir := setupProject(t)
	base := time.Date(2026, 2, 11, 10, 0, 0, 0, time.UTC)
	touch(t, filepath.Join(dir, "s1.jsonl"), base)
	touch(t, filepath.Join(dir, "s2.jsonl"), base.Add(time.Minute))

	path, err := New(projectsDir, workspace.Static(root)).Locate(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "s2.jsonl"), path)
}

func TestLocate_TieBreakByName(t *testing.T) {
	projectsDir, dir := setupProject(t)
	mtime := time.Date(2026, 2, 11, 10, 0, 0, 0, time.UTC)
	touch(t, filepath.Join(dir, "bbb.jsonl"), mtime)
	touch(t, filepath.Join(dir, "aaa.jsonl"), mtime)
	touch(t, filepath.Join(dir, "ccc.jsonl"), mtime)

	path, err := New(projectsDir, workspace.Static(root)).Locate(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "aaa.jsonl"), path)
}

func TestLocate_IgnoresOtherFiles(t *testing.T) {
	projectsDir, dir := setupProject(t)
	base := time.Date(2026, 2, 11, 10, 0, 0, 0, time.UTC)
	touch(t, filepath.Join(dir, "old.jsonl"), base)
	touch(t, filepath.Join(dir, "notes.txt"), base.Add(time.Hour))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "newer.jsonl"), 0o755))
	require.NoError(t, os.Chtimes(filepath.Join(dir, "newer.jsonl"), base.Add(2*time.Hour), base.Add(2*time.Hour)))

	path, err := New(projectsDir, workspace.Static(root)).Locate(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "old.jsonl"), path)
}

func TestLocate_ExplicitSession(t *testing.T) {
	projectsDir, dir := setupProject(t)
	base := time.Date(2026, 2, 11, 10, 0, 0, 0, time.UTC)
	touch(t, filepath.Join(dir, "abc.jsonl"), base)
	touch(t, filepath.Join(dir, "newer.jsonl"), base.Add(time.Hour))

	path, err := New(projectsDir, workspace.Static(root)).Locate(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "abc.jsonl"), path)
}

func TestLocate_ExplicitSessionMissing(t *testing.T) {
	projectsDir, dir := setupProject(t)
	touch(t, filepath.Join(dir, "other.jsonl"), time.Now())

	_, err := New(projectsDir, workspace.Static(root)).Locate(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrTranscriptNotFound)
}

func TestLocate_InvalidSessionID(t *testing.T) {
	projectsDir, dir := setupProject(t)
	touch(t, filepath.Join(dir, "abc.jsonl"), time.Now())
	l := New(projectsDir, workspace.Static(root))

	for _, id := range []string{"../abc", "sub/abc", ".", ".."} {
		_, err := l.Locate(context.Background(), id)
		assert.ErrorIs(t, err, ErrTranscriptNotFound, "id %q", id)
	}
}

func TestLocate_EmptyDirectory(t *testing.T) {
	projectsDir, _ := setupProject(t)

	_, err := New(projectsDir, workspace.Static(root)).Locate(context.Background(), "")
	assert.ErrorIs(t, err, ErrTranscriptNotFound)
}

func TestLocate_NoSessionDirectory(t *testing.T) {
	projectsDir := t.TempDir()

	_, err := New(projectsDir, workspace.Static(root)).Locate(context.Background(), "")
	assert.ErrorIs(t, err, ErrTranscriptNotFound)
}

type failingResolver struct{ err error }

func (f failingResolver) Resolve(context.Context) (string, error) { return "", f.err }

func TestLocate_NotInRepository(t *testing.T) {
	projectsDir, _ := setupProject(t)

	_, err := New(projectsDir, failingResolver{err: workspace.ErrNotInRepository}).Locate(context.Background(), "")
	assert.ErrorIs(t, err, workspace.ErrNotInRepository)
	assert.NotErrorIs(t, err, ErrTranscriptNotFound)
}

func TestDir_WrapsForeignResolverErrors(t *testing.T) {
	projectsDir, _ := setupProject(t)

	_, err := New(projectsDir, failingResolver{err: os.ErrPermission}).Dir(context.Background())
	assert.ErrorIs(t, err, workspace.ErrNotInRepository)
	assert.ErrorIs(t, err, os.ErrPermission)
}

func TestList_NewestFirst(t *testing.T) {
	projectsDir, dir := setupProject(t)
	base := time.Date(2026, 2, 11, 10, 0, 0, 0, time.UTC)
	touch(t, filepath.Join(dir, "a.jsonl"), base)
	touch(t, filepath.Join(dir, "b.jsonl"), base.Add(2*time.Minute))
	touch(t, filepath.Join(dir, "c.jsonl"), base.Add(time.Minute))

	sessions, err := New(projectsDir, workspace.Static(root)).List(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 3)

	ids := []string{sessions[0].ID, sessions[1].ID, sessions[2].ID}
	assert.Equal(t, []string{"b", "c", "a"}, ids)
	assert.Equal(t, int64(3), sessions[0].Size)
	assert.True(t, sessions[0].ModTime.Equal(base.Add(2*time.Minute)))
}
