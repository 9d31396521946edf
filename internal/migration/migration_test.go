package migration_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scrypster/continuity/internal/embedder"
	"github.com/scrypster/continuity/internal/migration"
	"github.com/scrypster/continuity/internal/store"
	"github.com/scrypster/continuity/pkg/types"
)

func parseFrontmatterForTest(raw []byte) (map[string]interface{}, string, error) {
	return store.ParseRawFrontmatter(raw)
}

// writeRawRecord writes a memory file bypassing store.EncodeMemory, so the
// legacy-only keys (temporal_relevance, emotional_resonance, ...) a typed
// encode would never produce are actually present in the frontmatter.
func writeRawRecord(t *testing.T, dir, id, frontmatter, body string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, id+".md")
	content := "---\n" + frontmatter + "\n---\n\n" + body
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestMigrateProjectCanonicalizesLegacyContextType(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "memories")
	writeRawRecord(t, dir, "mem-1",
		"id: mem-1\nproject_id: proj-1\nheadline: fixed flaky retry\ncontext_type: bugfix\nimportance_weight: 0.6\nstatus: active\n",
		"details here")

	m := migration.New(nil, nil)
	report, err := m.MigrateProject(context.Background(), "proj-1", root)
	require.NoError(t, err)
	require.Equal(t, 1, report.Scanned)
	require.Equal(t, 1, report.Upgraded)

	raw, err := os.ReadFile(filepath.Join(dir, "mem-1.md"))
	require.NoError(t, err)
	fields, _, err := parseFrontmatterForTest(raw)
	require.NoError(t, err)
	require.Equal(t, string(types.ContextDebug), fields["context_type"])
}

func TestMigrateProjectMapsLegacyTemporalRelevance(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "memories")
	writeRawRecord(t, dir, "mem-2",
		"id: mem-2\nproject_id: proj-1\nheadline: core design decision\ncontext_type: decision\nimportance_weight: 0.9\nstatus: active\ntemporal_relevance: permanent\n",
		"why we chose this")

	m := migration.New(nil, nil)
	_, err := m.MigrateProject(context.Background(), "proj-1", root)
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, "mem-2.md"))
	require.NoError(t, err)
	fields, _, err := parseFrontmatterForTest(raw)
	require.NoError(t, err)
	require.Equal(t, string(types.TemporalEternal), fields["temporal_class"])
	require.NotContains(t, fields, "temporal_relevance")
}

func TestMigrateProjectIsIdempotent(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "memories")
	writeRawRecord(t, dir, "mem-3",
		"id: mem-3\nproject_id: proj-1\nheadline: note\ncontext_type: technical\nimportance_weight: 0.5\nstatus: active\n",
		"body text")

	m := migration.New(nil, nil)
	_, err := m.MigrateProject(context.Background(), "proj-1", root)
	require.NoError(t, err)

	first, err := os.ReadFile(filepath.Join(dir, "mem-3.md"))
	require.NoError(t, err)

	report2, err := m.MigrateProject(context.Background(), "proj-1", root)
	require.NoError(t, err)
	require.Equal(t, 0, report2.Upgraded)

	second, err := os.ReadFile(filepath.Join(dir, "mem-3.md"))
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestMigrateProjectReembedsMissingEmbedding(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "memories")
	writeRawRecord(t, dir, "mem-4",
		"id: mem-4\nproject_id: proj-1\nheadline: note\ncontext_type: technical\nimportance_weight: 0.5\nstatus: active\nschema_version: 2\n",
		"body text")

	m := migration.New(embedder.NewLocal(), nil)
	report, err := m.MigrateProject(context.Background(), "proj-1", root)
	require.NoError(t, err)
	require.Equal(t, 1, report.Reembedded)

	raw, err := os.ReadFile(filepath.Join(dir, "mem-4.md"))
	require.NoError(t, err)
	fields, _, err := parseFrontmatterForTest(raw)
	require.NoError(t, err)
	emb, ok := fields["embedding"].([]interface{})
	require.True(t, ok)
	require.Len(t, emb, types.EmbeddingDimension)
}

func TestMigrateProjectCustomOverlayWinsOverBuiltin(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "memories")
	writeRawRecord(t, dir, "mem-5",
		"id: mem-5\nproject_id: proj-1\nheadline: note\ncontext_type: bugfix\nimportance_weight: 0.5\nstatus: active\n",
		"body text")

	overlay := map[string]types.ContextType{"bugfix": types.ContextArchitecture}
	m := migration.New(nil, overlay)
	_, err := m.MigrateProject(context.Background(), "proj-1", root)
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, "mem-5.md"))
	require.NoError(t, err)
	fields, _, err := parseFrontmatterForTest(raw)
	require.NoError(t, err)
	require.Equal(t, string(types.ContextArchitecture), fields["context_type"])
}

func TestMigrateProjectMissingDirectoryIsNotAnError(t *testing.T) {
	root := t.TempDir()
	m := migration.New(nil, nil)
	report, err := m.MigrateProject(context.Background(), "proj-1", root)
	require.NoError(t, err)
	require.Equal(t, 0, report.Scanned)
}
