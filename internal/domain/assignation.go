package domain

import (
	"fmt"
	"strings"
)

// ParseAssignation converts the legacy comma-joined assignation string
// into typed targets. Trailing "+N more" truncation fragments are
// dropped; only the literal leading values participate in matching.
// The empty string and the "No assignation" sentinel yield no targets.
func ParseAssignation(raw string, channels ChannelMap) []AssignTarget {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == NoAssignation {
		return nil
	}

	var targets []AssignTarget
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.HasPrefix(part, "+") && strings.HasSuffix(part, "more") {
			continue
		}
		targets = append(targets, classifyTarget(part, channels))
	}
	return targets
}

func classifyTarget(value string, channels ChannelMap) AssignTarget {
	if value == CatchAllLabel {
		return AssignTarget{Kind: TargetCatchAll, Value: value}
	}
	if BusinessType(value).Valid() {
		return AssignTarget{Kind: TargetType, Value: value}
	}
	if channels.IsChannelLabel(value) {
		return AssignTarget{Kind: TargetChannel, Value: value}
	}
	return AssignTarget{Kind: TargetName, Value: value}
}

// RenderAssignation produces the display string for a target list,
// truncated to maxShown values with a "+N more" suffix. It exists for
// the UI boundary only; nothing parses its output back.
func RenderAssignation(targets []AssignTarget, maxShown int) string {
	if len(targets) == 0 {
		return NoAssignation
	}
	if maxShown <= 0 || maxShown > len(targets) {
		maxShown = len(targets)
	}
	values := make([]string, 0, maxShown)
	for _, t := range targets[:maxShown] {
		values = append(values, t.Value)
	}
	out := strings.Join(values, ", ")
	if rest := len(targets) - maxShown; rest > 0 {
		out += fmt.Sprintf(", +%d more", rest)
	}
	return out
}
