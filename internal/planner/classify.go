package planner

import "strings"

// SectionType drives the min/max length envelope applied to a section: the
// role of a section, not its size, decides how far generated prose expands
// beyond its outline target.
type SectionType string

const (
	TypeIntro      SectionType = "intro"
	TypeMethod     SectionType = "method"
	TypeConclusion SectionType = "conclusion"
	TypeGeneric    SectionType = "default"
)

// Classifier decides a section's role from its title. The keyword table below
// is the default; callers may swap in model-based or hybrid strategies without
// touching the budget math.
type Classifier interface {
	Classify(title string) SectionType
	IsReference(title string) bool
}

// KeywordClassifier matches titles against curated bilingual term sets.
type KeywordClassifier struct{}

var (
	introTerms      = []string{"introduction", "background", "overview", "综述", "引言"}
	methodTerms     = []string{"method", "design", "implementation", "architecture", "analysis", "方法", "设计", "实现", "架构"}
	conclusionTerms = []string{"conclusion", "summary", "结论", "总结", "展望"}
)

func (KeywordClassifier) Classify(title string) SectionType {
	t := strings.ToLower(strings.TrimSpace(title))
	if containsAny(t, introTerms) {
		return TypeIntro
	}
	if containsAny(t, methodTerms) {
		return TypeMethod
	}
	if containsAny(t, conclusionTerms) {
		return TypeConclusion
	}
	return TypeGeneric
}

func (KeywordClassifier) IsReference(title string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	if t == "" {
		return false
	}
	return strings.Contains(t, "参考文献") ||
		strings.Contains(t, "参考资料") ||
		t == "文献" ||
		strings.Contains(t, "references")
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
