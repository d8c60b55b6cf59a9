package outline

import (
	"context"
	"encoding/json"
	"fmt"
)

// StaticProposer emits a deterministic plan without calling any model. It is
// the offline fallback: equal per-section targets with the last section
// absorbing the rounding remainder.
type StaticProposer struct{}

func NewStaticProposer() *StaticProposer {
	return &StaticProposer{}
}

func (p *StaticProposer) ProposePlan(_ context.Context, title, _ string, sections []string, totalChars int) (string, error) {
	if len(sections) == 0 {
		return "", fmt.Errorf("no sections to plan for document %q", title)
	}
	if totalChars <= 0 {
		totalChars = 500 * len(sections)
	}

	share := totalChars / len(sections)
	entries := make([]map[string]any, 0, len(sections))
	for i, sec := range sections {
		target := share
		if i == len(sections)-1 {
			target = totalChars - share*(len(sections)-1)
		}
		entries = append(entries, map[string]any{
			"title":        sec,
			"target_chars": target,
			"key_points":   []string{fmt.Sprintf("Cover the topic of %q", sec)},
		})
	}

	payload, err := json.Marshal(map[string]any{"sections": entries})
	if err != nil {
		return "", err
	}
	return string(payload), nil
}
