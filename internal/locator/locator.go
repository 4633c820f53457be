// Package locator finds Claude Code session transcripts for a workspace.
//
// Transcripts live under <projectsDir>/<project key>/<session id>.jsonl,
// where the project key is the workspace root with every "/" replaced by "-".
package locator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/sessionsync/internal/workspace"
)

// Ext is the transcript file extension.
const Ext = ".jsonl"

// ErrTranscriptNotFound indicates there is no storage directory, no file for
// the requested session, or no transcripts at all.
var ErrTranscriptNotFound = errors.New("no session transcript found")

// Session describes one transcript file on disk.
type Session struct {
	ID      string    `json:"id"`
	Path    string    `json:"path"`
	ModTime time.Time `json:"mod_time"`
	Size    int64     `json:"size"`
}

// Locator maps a workspace to its transcript directory.
type Locator struct {
	projectsDir string
	resolver    workspace.Resolver
}

func New(projectsDir string, resolver workspace.Resolver) *Locator {
	return &Locator{projectsDir: projectsDir, resolver: resolver}
}

// ProjectKey flattens a workspace root into a directory name: "/a/b" -> "-a-b".
func ProjectKey(root string) string {
	return strings.ReplaceAll(root, "/", "-")
}

// Dir returns the transcript directory for the current workspace.
func (l *Locator) Dir(ctx context.Context) (string, error) {
	root, err := l.resolver.Resolve(ctx)
	if err != nil {
		if errors.Is(err, workspace.ErrNotInRepository) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", workspace.ErrNotInRepository, err)
	}

	dir := filepath.Join(l.projectsDir, ProjectKey(root))
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: no session directory at %s", ErrTranscriptNotFound, dir)
	}
	return dir, nil
}

// Locate returns the transcript path for sessionID, or for the most recently
// modified transcript when sessionID is empty.
func (l *Locator) Locate(ctx context.Context, sessionID string) (string, error) {
	dir, err := l.Dir(ctx)
	if err != nil {
		return "", err
	}

	if sessionID != "" {
		if !validID(sessionID) {
			return "", fmt.Errorf("%w: invalid session id %q", ErrTranscriptNotFound, sessionID)
		}
		path := filepath.Join(dir, sessionID+Ext)
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			return "", fmt.Errorf("%w: %s", ErrTranscriptNotFound, path)
		}
		return path, nil
	}

	sessions, err := scan(dir)
	if err != nil {
		return "", err
	}
	if len(sessions) == 0 {
		return "", fmt.Errorf("%w: %s is empty", ErrTranscriptNotFound, dir)
	}
	return sessions[0].Path, nil
}

// List returns every transcript for the current workspace, newest first.
func (l *Locator) List(ctx context.Context) ([]Session, error) {
	dir, err := l.Dir(ctx)
	if err != nil {
		return nil, err
	}
	return scan(dir)
}

// scan collects regular *.jsonl files in dir ordered by mtime descending.
// Equal mtimes are ordered by file name ascending.
func scan(dir string) ([]Session, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var sessions []Session
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, Ext) {
			continue
		}
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		sessions = append(sessions, Session{
			ID:      strings.TrimSuffix(name, Ext),
			Path:    path,
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}

	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].ModTime.Equal(sessions[j].ModTime) {
			return sessions[i].ModTime.After(sessions[j].ModTime)
		}
		return sessions[i].ID < sessions[j].ID
	})
	return sessions, nil
}

func validID(id string) bool {
	if id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}
