package lifecycle

import "strings"

// reversalKeywords signal that a new architecture/decision memory explicitly
// reverses an earlier one (spec §4.3.1: "explicit language of reversal").
var reversalKeywords = []string{
	"no longer", "instead of", "replaced", "replacing", "deprecated",
	"abandoned", "reversed", "changed from", "moved away from", "superseded",
	"switched from", "rather than",
}

// completionVerbs signal that session evidence shows work was finished,
// backing both the awaiting_implementation clear and the action-cleared
// sweep (spec §4.3.2).
var completionVerbs = []string{
	"implemented", "fixed", "resolved", "completed", "finished", "shipped",
	"merged", "done", "deployed", "landed", "closed",
}

func containsAny(haystack string, needles []string) bool {
	lower := strings.ToLower(haystack)
	for _, n := range needles {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}
