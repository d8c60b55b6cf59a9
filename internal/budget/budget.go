// Package budget governs how much context a generation cycle may spend:
// token estimation, per-section budget allocation, and context compression.
package budget

import (
	"math"
	"strings"
	"unicode/utf8"
)

// SectionBudget is one section's share of the document-wide token budget.
type SectionBudget struct {
	Section     string
	TokenBudget int
}

// charsPerToken approximates mixed CJK/Latin prompts; tuned against the
// model services this core routes to.
const charsPerToken = 2.4

const (
	minTotalBudget   = 256
	minSectionBudget = 64
)

// EstimateTokenCount approximates the token cost of text. Returns 0 only for
// empty (or whitespace-only) input.
func EstimateTokenCount(text string) int {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0
	}
	n := int(math.Ceil(float64(utf8.RuneCountInString(s)) / charsPerToken))
	if n < 1 {
		n = 1
	}
	return n
}

// TokensForChars converts a character target into an equivalent token budget.
func TokensForChars(chars int) int {
	if chars <= 0 {
		return 0
	}
	n := int(math.Ceil(float64(chars) / charsPerToken))
	if n < 1 {
		n = 1
	}
	return n
}

// AllocateTokenBudget splits a total budget across sections, weighting each by
// its title length. Every section except the last gets a floored proportional
// share clamped to a minimum; the last absorbs the remainder, so the
// allocations always sum to the clamped total with no rounding loss.
func AllocateTokenBudget(sections []string, totalBudget int) []SectionBudget {
	items := make([]string, 0, len(sections))
	for _, s := range sections {
		if s = strings.TrimSpace(s); s != "" {
			items = append(items, s)
		}
	}
	if len(items) == 0 {
		return nil
	}
	if totalBudget < minTotalBudget {
		totalBudget = minTotalBudget
	}

	weightSum := 0
	for _, s := range items {
		weightSum += sectionWeight(s)
	}

	out := make([]SectionBudget, 0, len(items))
	remaining := totalBudget
	for i, sec := range items {
		var alloc int
		if i == len(items)-1 {
			alloc = remaining
		} else {
			alloc = totalBudget * sectionWeight(sec) / weightSum
			if alloc < minSectionBudget {
				alloc = minSectionBudget
			}
			remaining -= alloc
		}
		if alloc < minSectionBudget {
			alloc = minSectionBudget
		}
		out = append(out, SectionBudget{Section: sec, TokenBudget: alloc})
	}
	return out
}

func sectionWeight(title string) int {
	if n := utf8.RuneCountInString(title); n > 1 {
		return n
	}
	return 1
}

// CompressContext shrinks text to maxChars, keeping lines that mention any
// preserve keyword (as a prefix block capped at 35% of the budget) plus the
// literal tail of the text. Recency and flagged anchors win over the middle
// of long documents.
func CompressContext(text string, maxChars int, preserve []string) string {
	body := strings.TrimSpace(text)
	if utf8.RuneCountInString(body) <= maxChars {
		return body
	}

	keep := make([]string, 0, len(preserve))
	for _, k := range preserve {
		if k = strings.TrimSpace(k); k != "" {
			keep = append(keep, k)
		}
	}

	var keepLines []string
	for _, line := range strings.Split(body, "\n") {
		ln := strings.TrimSpace(line)
		for _, key := range keep {
			if strings.Contains(ln, key) {
				keepLines = append(keepLines, ln)
				break
			}
		}
	}

	prefix := truncateRunes(strings.Join(keepLines, "\n"), int(float64(maxChars)*0.35))
	tailBudget := maxChars - utf8.RuneCountInString(prefix) - 8
	if tailBudget < 0 {
		tailBudget = 0
	}
	tail := tailRunes(body, tailBudget)
	return strings.TrimSpace(prefix + "\n...\n" + tail)
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func tailRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
