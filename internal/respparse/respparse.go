// Package respparse implements the Response Parser fallback cascade
// (spec.md 4.5): the Gateway always tries a tool call first, but some
// providers and models (particularly local ollama models) ignore the
// tool schema and answer in prose, so every caller that expects a tool
// call also needs a fallback path that recovers structured data from
// free text.
//
// Each strategy runs a "does this look like usable model output" triage
// before handing a result upstream, in an explicit cascade of
// increasingly lenient parse strategies.
package respparse

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Parse attempts, in order: a whole-body JSON object parse, a parse of
// the body with a fenced code block stripped, a brace-matching scan for
// the first balanced {...} region, and finally a regex scan for
// "key: number" lines. It returns the first strategy that produces a
// non-empty map, along with the name of the strategy that succeeded.
func Parse(body string) (map[string]any, string, error) {
	if v, err := parseWholeBody(body); err == nil {
		return v, "whole_body", nil
	}

	if stripped, ok := stripFencedBlock(body); ok {
		if v, err := parseWholeBody(stripped); err == nil {
			return v, "fenced_block", nil
		}
	}

	if region, ok := firstBalancedBraces(body); ok {
		if v, err := parseWholeBody(region); err == nil {
			return v, "brace_scan", nil
		}
	}

	if v, ok := scanKeyNumberPairs(body); ok {
		return v, "key_number_scan", nil
	}

	return nil, "", errNoStructureFound
}

var errNoStructureFound = errParseError("respparse: no structured data found in response body")

type errParseError string

func (e errParseError) Error() string { return string(e) }

func parseWholeBody(body string) (map[string]any, error) {
	var v map[string]any
	dec := json.NewDecoder(strings.NewReader(strings.TrimSpace(body)))
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if len(v) == 0 {
		return nil, errNoStructureFound
	}
	return v, nil
}

var fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

func stripFencedBlock(body string) (string, bool) {
	m := fencedBlockRe.FindStringSubmatch(body)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// firstBalancedBraces scans for the first top-level {...} region, so that
// a reply like "Sure, here are the scores: {...} let me know if you need
// anything else" still yields its embedded object.
func firstBalancedBraces(body string) (string, bool) {
	start := strings.IndexByte(body, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(body); i++ {
		c := body[i]
		if inString {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return body[start : i+1], true
			}
		}
	}
	return "", false
}

// scanKeyNumberPairs is the last-resort strategy: pull out every
// "key: number" line it can find. Values outside [0,1] are normalized
// down by /10 or /100 on the assumption the model reported a 0-10 or
// 0-100 scale instead of the requested [0,1] range.
var keyNumberRe = regexp.MustCompile(`(?m)^\s*["']?([A-Za-z_][A-Za-z0-9_ ]*)["']?\s*[:=]\s*(-?[0-9]+(?:\.[0-9]+)?)\s*$`)

func scanKeyNumberPairs(body string) (map[string]any, bool) {
	matches := keyNumberRe.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil, false
	}
	out := make(map[string]any, len(matches))
	for _, m := range matches {
		key := strings.TrimSpace(m[1])
		n, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		out[key] = normalizeToUnitRange(n)
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// normalizeToUnitRange brings a value plausibly expressed on a 0-10 or
// 0-100 scale back into [0,1]; values already in range pass through.
func normalizeToUnitRange(n float64) float64 {
	switch {
	case n >= 0 && n <= 1:
		return n
	case n > 1 && n <= 10:
		return n / 10
	case n > 10 && n <= 100:
		return n / 100
	default:
		return n
	}
}

// ValidateScores checks that every value in scores lies within [0,1],
// the post-parse validation rule spec.md 4.5 requires regardless of
// which cascade strategy produced the map.
func ValidateScores(scores map[string]any) []string {
	var problems []string
	for k, v := range scores {
		f, ok := toFloat(v)
		if !ok {
			problems = append(problems, k+": not a number")
			continue
		}
		if f < 0 || f > 1 {
			problems = append(problems, k+": out of [0,1] range")
		}
	}
	return problems
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// compactJSON is used by tests to compare parsed output independent of
// whitespace differences between cascade strategies.
func compactJSON(v any) string {
	b, _ := json.Marshal(v)
	var buf bytes.Buffer
	_ = json.Compact(&buf, b)
	return buf.String()
}
