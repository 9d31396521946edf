package lifecycle

import (
	"context"
	"strings"

	"github.com/scrypster/continuity/internal/store"
	"github.com/scrypster/continuity/pkg/types"
)

// primerWorthyKeywords gates which personal/global memories are significant
// enough to merge into the singleton primer (spec §4.3.4: "core identity /
// family / relationship milestones").
var primerWorthyKeywords = []string{
	"name is", "my name", "family", "spouse", "partner", "wife", "husband",
	"child", "daughter", "son", "kids", "pet", "anniversary", "birthday",
	"hometown", "lives in", "moved to", "pronoun", "prefer to be called",
}

func isPrimerWorthy(m *types.Memory) bool {
	return containsAny(m.Content, primerWorthyKeywords) || containsAny(m.Headline, primerWorthyKeywords)
}

// maintainPrimer implements spec §4.3.4: for every new memory with
// context_type=personal and scope=global that looks primer-worthy, merge its
// fact into the singleton primer, respecting existing structure. The primer
// is the only file the Lifecycle Manager may create (store.ProjectDB's
// WritePrimer already handles create-or-overwrite).
func maintainPrimer(ctx context.Context, global *store.ProjectDB, newMemories []*types.Memory) (bool, error) {
	var facts []string
	for _, m := range newMemories {
		if m.ContextType != types.ContextPersonal || m.Scope != types.ScopeGlobal {
			continue
		}
		if !isPrimerWorthy(m) {
			continue
		}
		facts = append(facts, primerLine(m))
	}
	if len(facts) == 0 {
		return false, nil
	}

	existing := global.Primer()
	content := mergePrimerFacts(existing, facts)
	if err := global.WritePrimer(ctx, content); err != nil {
		return false, err
	}
	return true, nil
}

func primerLine(m *types.Memory) string {
	if m.Headline != "" {
		return "- " + m.Headline
	}
	return "- " + m.Content
}

// mergePrimerFacts appends new facts to the existing primer body, skipping
// any already present verbatim (respecting existing structure means
// appending, not rewriting what's there).
func mergePrimerFacts(existing *types.PersonalPrimer, facts []string) string {
	var body string
	if existing != nil {
		body = strings.TrimRight(existing.Content, "\n")
	} else {
		body = "# Personal Primer"
	}

	for _, fact := range facts {
		if strings.Contains(body, fact) {
			continue
		}
		body += "\n" + fact
	}
	return body + "\n"
}
