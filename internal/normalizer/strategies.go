package normalizer

import (
	"encoding/json"
	"regexp"
	"strconv"
)

// parseStrategy is one attempt at turning free text into a structured object.
// Strategies are tried in order; the first success wins.
type parseStrategy struct {
	name  string
	parse func(text string) (map[string]interface{}, bool)
}

// textStrategies is the ordered fallback chain for a textual message field:
// direct JSON, fenced json block, any fenced block, first balanced brace span,
// and finally heuristic regex extraction (which always succeeds).
var textStrategies = []parseStrategy{
	{name: "json", parse: parseDirectJSON},
	{name: "fenced_json", parse: parseFencedJSON},
	{name: "fenced", parse: parseFencedAny},
	{name: "brace_span", parse: parseBraceSpan},
	{name: "heuristic", parse: parseHeuristicText},
}

var (
	fencedJSONRe = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	fencedAnyRe  = regexp.MustCompile("(?s)```\\s*(.*?)\\s*```")

	balanceRe = regexp.MustCompile(`Amount:\s*([0-9.]+)\s*([A-Za-z]+)`)
	ageRe     = regexp.MustCompile(`(?i)created(?:.*?)([0-9]+)(?:\s*)days`)
	uniqueRe  = regexp.MustCompile(`(?i)unique(?:.*?)([0-9]+)(?:\s*)addresses`)
)

func parseDirectJSON(text string) (map[string]interface{}, bool) {
	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, false
	}
	return parsed, true
}

func parseFencedJSON(text string) (map[string]interface{}, bool) {
	match := fencedJSONRe.FindStringSubmatch(text)
	if match == nil {
		return nil, false
	}
	return parseDirectJSON(match[1])
}

func parseFencedAny(text string) (map[string]interface{}, bool) {
	match := fencedAnyRe.FindStringSubmatch(text)
	if match == nil {
		return nil, false
	}
	return parseDirectJSON(match[1])
}

// parseBraceSpan extracts the first top-level {...} span by scanning for
// balanced braces, skipping over string literals.
func parseBraceSpan(text string) (map[string]interface{}, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, r := range text {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}

		switch r {
		case '"':
			if start >= 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				return parseDirectJSON(text[start : i+1])
			}
		}
	}

	return nil, false
}

// parseHeuristicText scans prose for a balance, an age and a uniqueness
// pattern. It never fails; unmatched fields stay at their defaults.
func parseHeuristicText(text string) (map[string]interface{}, bool) {
	result := map[string]interface{}{
		"transactionHistory":   []interface{}{},
		"contractInteractions": []interface{}{},
		"tokenHoldings":        []interface{}{},
		"uniqueInteractions":   float64(0),
		"accountBalance":       "0",
	}

	if m := balanceRe.FindStringSubmatch(text); m != nil {
		result["accountBalance"] = m[1] + " " + m[2]
	}
	if m := ageRe.FindStringSubmatch(text); m != nil {
		result["addressAge"] = m[1] + " days"
	}
	if m := uniqueRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			result["uniqueInteractions"] = float64(n)
		}
	}

	return result, true
}

// parseText runs the strategy chain and returns the first success along with
// the winning strategy's name. The heuristic terminator guarantees a result.
func parseText(text string) (map[string]interface{}, string) {
	for _, s := range textStrategies {
		if parsed, ok := s.parse(text); ok {
			return parsed, s.name
		}
	}
	// Unreachable: the heuristic strategy always succeeds
	return map[string]interface{}{}, "none"
}
