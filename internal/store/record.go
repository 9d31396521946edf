package store

import (
	"bufio"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/scrypster/continuity/pkg/types"
)

// splitFrontmatter separates YAML frontmatter (delimited by "---" lines)
// from the markdown body that follows it.
//
// Grounded on internal/importer/markdown.go's splitFrontmatter: same
// line-scan-and-delimiter-search approach, adapted to return the raw
// frontmatter text (for unmarshalling into a typed struct, not a
// map[string]interface{}) instead of a generic map.
func splitFrontmatter(raw string) (frontmatter, body string, err error) {
	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return "", "", fmt.Errorf("store: scan record: %w", err)
	}

	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return "", "", newErr(KindSchema, "splitFrontmatter", fmt.Errorf("missing opening frontmatter delimiter"))
	}

	closeIdx := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			closeIdx = i
			break
		}
	}
	if closeIdx == -1 {
		return "", "", newErr(KindSchema, "splitFrontmatter", fmt.Errorf("missing closing frontmatter delimiter"))
	}

	frontmatter = strings.Join(lines[1:closeIdx], "\n")
	body = strings.TrimPrefix(strings.Join(lines[closeIdx+1:], "\n"), "\n")
	return frontmatter, body, nil
}

// joinFrontmatter assembles a record file from a YAML frontmatter block and
// a markdown body, mirroring the layout splitFrontmatter parses.
func joinFrontmatter(frontmatter, body string) []byte {
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString(strings.TrimRight(frontmatter, "\n"))
	b.WriteString("\n---\n\n")
	b.WriteString(body)
	return []byte(b.String())
}

// ParseRawFrontmatter decodes a record's frontmatter into a generic map
// rather than a typed struct, for callers (internal/migration) that must
// inspect legacy/obsolete keys a typed yaml.Unmarshal would silently drop.
func ParseRawFrontmatter(raw []byte) (map[string]interface{}, string, error) {
	fm, body, err := splitFrontmatter(string(raw))
	if err != nil {
		return nil, "", err
	}
	m := make(map[string]interface{})
	if err := yaml.Unmarshal([]byte(fm), &m); err != nil {
		return nil, "", newErr(KindSchema, "ParseRawFrontmatter", err)
	}
	return m, body, nil
}

// EncodeMemory renders m as the on-disk memory file format from spec §6:
// YAML frontmatter (every structured field, including the 384-element
// embedding vector) followed by the human-readable content as the body.
func EncodeMemory(m *types.Memory) ([]byte, error) {
	fm, err := yaml.Marshal(m)
	if err != nil {
		return nil, newErr(KindSchema, "EncodeMemory", err)
	}
	return joinFrontmatter(string(fm), m.Content), nil
}

// DecodeMemory parses the on-disk memory file format back into a Memory.
// Unknown/future frontmatter fields are ignored by yaml.Unmarshal, giving
// the additive-schema forward compatibility spec §6 requires.
func DecodeMemory(raw []byte) (*types.Memory, error) {
	fm, body, err := splitFrontmatter(string(raw))
	if err != nil {
		return nil, err
	}
	var m types.Memory
	if err := yaml.Unmarshal([]byte(fm), &m); err != nil {
		return nil, newErr(KindSchema, "DecodeMemory", err)
	}
	m.Content = body
	return &m, nil
}

// EncodeSessionSummary / DecodeSessionSummary follow the same frontmatter +
// body split, with Summary carried as the markdown body.
func EncodeSessionSummary(s *types.SessionSummary) ([]byte, error) {
	fm, err := yaml.Marshal(s)
	if err != nil {
		return nil, newErr(KindSchema, "EncodeSessionSummary", err)
	}
	return joinFrontmatter(string(fm), s.Summary), nil
}

func DecodeSessionSummary(raw []byte) (*types.SessionSummary, error) {
	fm, body, err := splitFrontmatter(string(raw))
	if err != nil {
		return nil, err
	}
	var s types.SessionSummary
	if err := yaml.Unmarshal([]byte(fm), &s); err != nil {
		return nil, newErr(KindSchema, "DecodeSessionSummary", err)
	}
	s.Summary = body
	return &s, nil
}

// EncodeProjectSnapshot / DecodeProjectSnapshot, same pattern, Snapshot as body.
func EncodeProjectSnapshot(s *types.ProjectSnapshot) ([]byte, error) {
	fm, err := yaml.Marshal(s)
	if err != nil {
		return nil, newErr(KindSchema, "EncodeProjectSnapshot", err)
	}
	return joinFrontmatter(string(fm), s.Snapshot), nil
}

func DecodeProjectSnapshot(raw []byte) (*types.ProjectSnapshot, error) {
	fm, body, err := splitFrontmatter(string(raw))
	if err != nil {
		return nil, err
	}
	var s types.ProjectSnapshot
	if err := yaml.Unmarshal([]byte(fm), &s); err != nil {
		return nil, newErr(KindSchema, "DecodeProjectSnapshot", err)
	}
	s.Snapshot = body
	return &s, nil
}

// EncodeManagementLog / DecodeManagementLog: no prose body, frontmatter only.
func EncodeManagementLog(l *types.ManagementLog) ([]byte, error) {
	fm, err := yaml.Marshal(l)
	if err != nil {
		return nil, newErr(KindSchema, "EncodeManagementLog", err)
	}
	return joinFrontmatter(string(fm), ""), nil
}

func DecodeManagementLog(raw []byte) (*types.ManagementLog, error) {
	fm, _, err := splitFrontmatter(string(raw))
	if err != nil {
		return nil, err
	}
	var l types.ManagementLog
	if err := yaml.Unmarshal([]byte(fm), &l); err != nil {
		return nil, newErr(KindSchema, "DecodeManagementLog", err)
	}
	return &l, nil
}

// EncodeSession / DecodeSession: frontmatter only, no prose body.
func EncodeSession(s *types.Session) ([]byte, error) {
	fm, err := yaml.Marshal(s)
	if err != nil {
		return nil, newErr(KindSchema, "EncodeSession", err)
	}
	return joinFrontmatter(string(fm), ""), nil
}

func DecodeSession(raw []byte) (*types.Session, error) {
	fm, _, err := splitFrontmatter(string(raw))
	if err != nil {
		return nil, err
	}
	var s types.Session
	if err := yaml.Unmarshal([]byte(fm), &s); err != nil {
		return nil, newErr(KindSchema, "DecodeSession", err)
	}
	return &s, nil
}

// EncodePrimer / DecodePrimer: Content is the entire markdown body.
func EncodePrimer(p *types.PersonalPrimer) ([]byte, error) {
	fm, err := yaml.Marshal(p)
	if err != nil {
		return nil, newErr(KindSchema, "EncodePrimer", err)
	}
	return joinFrontmatter(string(fm), p.Content), nil
}

func DecodePrimer(raw []byte) (*types.PersonalPrimer, error) {
	fm, body, err := splitFrontmatter(string(raw))
	if err != nil {
		return nil, err
	}
	var p types.PersonalPrimer
	if err := yaml.Unmarshal([]byte(fm), &p); err != nil {
		return nil, newErr(KindSchema, "DecodePrimer", err)
	}
	p.Content = body
	return &p, nil
}
