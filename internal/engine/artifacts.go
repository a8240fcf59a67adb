package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"reach/workflowd/internal/domain"
	"reach/workflowd/internal/storage"
)

func sanitizeArtifactName(name string) string {
	base := filepath.Base(name)
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// persistArtifact writes content under the session's artifacts directory
// using the "run_<run_id>_<n>_<safe_name>" naming convention, and inserts
// its row with a project-root-relative path and sha256.
func (e *Engine) persistArtifact(ctx context.Context, q *storage.Queries, sessionID string, runID, stepID int64, n int, kind, name string, content []byte) (domain.Artifact, error) {
	safeName := sanitizeArtifactName(name)
	fileName := fmt.Sprintf("run_%d_%d_%s", runID, n, safeName)
	fullPath := filepath.Join(e.workspace.ArtifactsDir(sessionID), fileName)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return domain.Artifact{}, err
	}
	if err := os.WriteFile(fullPath, content, 0o644); err != nil {
		return domain.Artifact{}, err
	}

	relPath, err := filepath.Rel(e.workspace.ProjectRoot(), fullPath)
	if err != nil {
		relPath = fullPath
	}
	sum := sha256.Sum256(content)

	art := domain.Artifact{
		SessionID: sessionID,
		RunID:     runID,
		StepID:    stepID,
		Kind:      kind,
		Name:      fileName,
		Path:      relPath,
		SHA256:    hex.EncodeToString(sum[:]),
	}
	id, err := q.InsertArtifact(ctx, art)
	if err != nil {
		return domain.Artifact{}, err
	}
	art.ID = id
	return art, nil
}
