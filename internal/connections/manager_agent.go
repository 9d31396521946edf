package connections

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	actionsHeader = "=== MANAGEMENT ACTIONS ==="
	summaryHeader = "=== SUMMARY ==="
)

// ManagerBrief is the structured brief handed to the external management
// agent (spec §6: "a structured brief (new memory ids, summary, snapshot,
// session number, paths, current date, the memory-management skill
// prompt)"). SandboxRoot is the restricted file-access root the agent is
// confined to — enforcement of that restriction is the agent runner's
// responsibility, not this core's.
type ManagerBrief struct {
	NewMemoryIDs  []string
	Summary       string
	Snapshot      string
	SessionNumber int
	SandboxRoot   string
	CurrentDate   time.Time
	SkillPrompt   string
}

// ManagerReport is the parsed output of a management agent run.
type ManagerReport struct {
	Actions []string
	Summary string
	Raw     string
}

// ManagerAgent is the external agent that reconciles memories against a
// skill prompt and returns a plain-text report (spec §6). Opaque to the
// core beyond this interface.
type ManagerAgent interface {
	Manage(ctx context.Context, brief ManagerBrief) (*ManagerReport, error)
}

// ParseManagerReport implements spec §6's report grammar: a plain-text
// report containing "=== MANAGEMENT ACTIONS ===" and "=== SUMMARY ==="
// section markers. Actions are the non-blank lines between the two
// headers; Summary is everything after the summary header.
func ParseManagerReport(raw string) (*ManagerReport, error) {
	actionsIdx := strings.Index(raw, actionsHeader)
	summaryIdx := strings.Index(raw, summaryHeader)
	if actionsIdx == -1 || summaryIdx == -1 || summaryIdx < actionsIdx {
		return nil, &AgentError{Agent: "manager", Kind: KindParse, Err: fmt.Errorf("missing or out-of-order section markers")}
	}

	actionsBlock := raw[actionsIdx+len(actionsHeader) : summaryIdx]
	var actions []string
	for _, line := range strings.Split(actionsBlock, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "-"))
		line = strings.TrimSpace(line)
		if line != "" {
			actions = append(actions, line)
		}
	}

	summary := strings.TrimSpace(raw[summaryIdx+len(summaryHeader):])

	return &ManagerReport{Actions: actions, Summary: summary, Raw: raw}, nil
}
