package orchestration

import (
	"fmt"
	"strings"
)

// conjunctions signal multi-step requests.
var conjunctions = []string{" and ", " then ", ";"}

// assessComplexity scores a request from cheap textual signals: length,
// entity references, intent weight, and conjunctions.
func assessComplexity(task string, intent Intent, validation ValidationResult) Complexity {
	normalized := strings.ToLower(task)
	tokens := len(strings.Fields(normalized))

	score := 0.0
	var reasons []string

	switch {
	case tokens > 25:
		score += 0.35
		reasons = append(reasons, "long request")
	case tokens > 10:
		score += 0.2
		reasons = append(reasons, "multi-clause request")
	default:
		score += 0.05
	}

	conjunctionCount := 0
	for _, c := range conjunctions {
		conjunctionCount += strings.Count(normalized, c)
	}
	if conjunctionCount > 0 {
		score += 0.25 * float64(min(conjunctionCount, 2))
		reasons = append(reasons, fmt.Sprintf("%d conjunction(s) implying multi-step work", conjunctionCount))
	}

	if n := len(intent.Entities); n > 1 {
		score += 0.15
		reasons = append(reasons, fmt.Sprintf("%d entities referenced", n))
	}

	switch intent.Name {
	case IntentHelpRequest, IntentStatusInquiry, IntentListRequest:
		// Lookup-shaped intents stay simple.
	case IntentGeneralInquiry, IntentUnknown:
		score += 0.15
		reasons = append(reasons, "open-ended intent")
	default:
		score += 0.05
	}

	if !validation.IsValid {
		score += 0.1
		reasons = append(reasons, "operation did not validate")
	}

	if score > 1 {
		score = 1
	}

	level := ComplexityLow
	switch {
	case score >= 0.75:
		level = ComplexityVeryHigh
	case score >= 0.5:
		level = ComplexityHigh
	case score >= 0.25:
		level = ComplexityMedium
	}

	reasoning := "simple request"
	if len(reasons) > 0 {
		reasoning = strings.Join(reasons, "; ")
	}
	return Complexity{Level: level, Score: score, Reasoning: reasoning}
}
