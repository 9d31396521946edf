// Package migration implements spec §4.5's idempotent per-memory schema
// migration: applying defaults, canonicalizing context_type, mapping the
// retired temporal_relevance field, dropping obsolete fields, and optionally
// regenerating missing/malformed embeddings.
//
// It reads and rewrites memory record files directly off disk rather than
// going through internal/store's typed Store/ProjectDB API. store.DecodeMemory
// unmarshals frontmatter straight into types.Memory, so any legacy key with
// no corresponding struct field (temporal_relevance, emotional_resonance,
// component, ...) is silently gone by the time a *types.Memory reaches
// caller code — too late to remap. Migration parses frontmatter into a
// map[string]interface{} via store.ParseRawFrontmatter instead, so it can
// see and act on those keys before they're dropped for good.
//
// Grounded on the teacher's internal/storage/migrations.go: a version-gated,
// idempotent, tracked migration idiom, adapted here from SQL schema
// migrations to per-record frontmatter migrations.
package migration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/scrypster/continuity/internal/embedder"
	"github.com/scrypster/continuity/internal/store"
	"github.com/scrypster/continuity/pkg/types"
)

// Report summarizes one MigrateProject run.
type Report struct {
	ProjectID  string
	Scanned    int
	Upgraded   int
	Reembedded int
	Errors     []error
}

// Migrator applies spec §4.5's migration operations to on-disk memory
// records. Embed is optional: when nil, records with a missing/malformed
// embedding are left stale (EmbeddingStale=true) rather than re-embedded.
type Migrator struct {
	Embed   embedder.Embedder
	Overlay map[string]types.ContextType
}

// New constructs a Migrator. embed may be nil to skip re-embedding.
func New(embed embedder.Embedder, overlay map[string]types.ContextType) *Migrator {
	return &Migrator{Embed: embed, Overlay: overlay}
}

// MigrateProject walks projectDir/memories/*.md, migrating each record in
// place. Safe to call repeatedly (spec §4.5 "idempotent; safe to run
// repeatedly"): a record already at types.CurrentSchemaVersion skips the
// defaults/remap/legacy-field block entirely, and a well-formed embedding is
// left untouched.
func (m *Migrator) MigrateProject(ctx context.Context, projectID, projectDir string) (Report, error) {
	report := Report{ProjectID: projectID}

	dir := filepath.Join(projectDir, "memories")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return report, nil
		}
		return report, fmt.Errorf("migration: read %s: %w", dir, err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		report.Scanned++

		changed, reembedded, err := m.migrateFile(ctx, path)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("%s: %w", e.Name(), err))
			continue
		}
		if changed {
			report.Upgraded++
		}
		if reembedded {
			report.Reembedded++
		}
	}

	return report, nil
}

// migrateFile migrates a single record file, rewriting it to disk only when
// something actually changed (keeping an already-current file untouched,
// which is what makes a second run over the same corpus a byte-identical
// no-op per spec §4.5's idempotence requirement).
func (m *Migrator) migrateFile(ctx context.Context, path string) (changed, reembedded bool, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return false, false, err
	}

	fields, _, err := store.ParseRawFrontmatter(raw)
	if err != nil {
		return false, false, err
	}

	mem, err := store.DecodeMemory(raw)
	if err != nil {
		return false, false, err
	}

	upgraded := m.upgradeSchema(mem, fields)
	reembedded, err = m.reembedIfNeeded(ctx, mem)
	if err != nil {
		return false, false, err
	}

	if !upgraded && !reembedded {
		return false, false, nil
	}

	out, err := store.EncodeMemory(mem)
	if err != nil {
		return false, false, err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return false, false, err
	}
	return upgraded, reembedded, nil
}

// upgradeSchema applies spec §4.5's defaults/remap/legacy-field-drop block,
// gated behind schema_version < current. The block ends by stamping
// SchemaVersion to types.CurrentSchemaVersion (types.ApplyDefaults only
// fills a zero SchemaVersion), so a record already migrated takes this
// branch exactly once across any number of runs.
func (m *Migrator) upgradeSchema(mem *types.Memory, fields map[string]interface{}) bool {
	if mem.SchemaVersion >= types.CurrentSchemaVersion {
		return false
	}

	if raw, ok := stringField(fields, "context_type"); ok {
		mem.ContextType = remapContextType(raw, m.Overlay)
	} else {
		mem.ContextType = remapContextType(string(mem.ContextType), m.Overlay)
	}

	if mem.TemporalClass == "" {
		if legacy, ok := stringField(fields, "temporal_relevance"); ok {
			if tc, ok := legacyTemporalRelevanceToClass[legacy]; ok {
				mem.TemporalClass = tc
			}
		}
	}

	// Obsolete fields have no types.Memory counterpart and are already
	// absent from mem; the one exception is expires_after_sessions, which
	// the current schema still declares but no longer populates from
	// curator output, so migration clears any legacy value explicitly.
	mem.ExpiresAfterSessions = 0

	types.ApplyDefaults(mem)
	mem.SchemaVersion = types.CurrentSchemaVersion
	return true
}

// reembedIfNeeded re-generates mem's embedding when it is null, absent, or
// the wrong length (spec §4.5, invariant 7). Marks the record stale instead
// when no embedder is configured.
func (m *Migrator) reembedIfNeeded(ctx context.Context, mem *types.Memory) (bool, error) {
	if mem.ValidateEmbeddingInvariant() && mem.Embedding != nil {
		return false, nil
	}

	if m.Embed == nil {
		mem.EmbeddingStale = true
		return false, nil
	}

	vec, err := m.Embed.Embed(ctx, mem.Content)
	if err != nil {
		return false, fmt.Errorf("reembed: %w", err)
	}
	mem.Embedding = vec
	mem.EmbeddingStale = false
	return true, nil
}

// MigrateAll runs MigrateProject over every project directory directly
// under root (the Store's on-disk layout from spec §6: <root>/<project_id>),
// used by cmd/memory-server at startup to bring an existing corpus current
// before serving any requests.
func (m *Migrator) MigrateAll(ctx context.Context, root string) ([]Report, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("migration: read %s: %w", root, err)
	}

	var reports []Report
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		projectID := e.Name()
		report, err := m.MigrateProject(ctx, projectID, filepath.Join(root, projectID))
		if err != nil {
			return reports, fmt.Errorf("migration: project %s: %w", projectID, err)
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func stringField(fields map[string]interface{}, key string) (string, bool) {
	v, ok := fields[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// MarshalOverlay is a convenience for loading a custom remap table (spec
// §4.5 "custom remap tables overlay the built-in table when supplied") from
// a YAML document of raw-alias -> canonical-context-type pairs.
func MarshalOverlay(raw []byte) (map[string]types.ContextType, error) {
	var m map[string]string
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("migration: parse overlay: %w", err)
	}
	overlay := make(map[string]types.ContextType, len(m))
	for k, v := range m {
		overlay[k] = types.ContextType(v)
	}
	return overlay, nil
}
