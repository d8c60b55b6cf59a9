package planner

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	chapterPrefixRe = regexp.MustCompile(`^(第\s*[0-9一二三四五六七八九十]+\s*[章节部分]|chapter\s*\d+|\d+(\.\d+)*)[\s.、:：-]*`)
	spaceRunRe      = regexp.MustCompile(`\s+`)
	cjkGapRe        = regexp.MustCompile(`([\p{Han}])\s+([\p{Han}])`)
	trailingHashRe  = regexp.MustCompile(`\s*#+\s*$`)
	cnPunctRe       = regexp.MustCompile(`[。！？；：，,;?]`)
	splitPunctRe    = regexp.MustCompile(`[。！？；;：，,、…]`)
)

// Titles that are instructions about the document rather than sections of it.
var noisePrefixes = []string{"包括", "主要", "围绕", "切忌", "参看", "说明", "写出", "写成", "不要"}

// anchorTitles are canonical section names; a noisy proposed title containing
// one collapses to it. Longest anchors are tried first so 国内研究状况 wins
// over 研究现状.
var anchorTitles = []string{
	"本文的结构及主要工作", "选题背景及意义", "国内研究状况", "国外研究状况",
	"结论与展望", "部署与维护", "测试与分析", "数据库设计", "系统总体设计",
	"系统概述", "系统功能", "功能需求", "非功能需求", "研究现状", "研究目标",
	"研究内容", "关键技术", "总体设计", "详细设计", "概要设计", "系统设计",
	"系统实现", "系统架构", "需求分析", "技术路线", "技术方案", "工程设计",
	"技术选型", "实验设计", "结果分析", "系统测试", "后期展望", "系统总结",
	"研究背景", "研究意义", "文献综述", "参考文献",
	"引言", "绪论", "背景", "方法", "设计", "实现", "测试", "结论", "总结",
}

// CleanTitle normalizes a proposed section title: strips chapter numbering and
// markdown noise, collapses whitespace, drops instruction-like phrases, and
// snaps onto a canonical anchor when one is embedded in a longer sentence.
// Returns "" when the title is unusable.
func CleanTitle(title string) string {
	s := chapterPrefixRe.ReplaceAllString(strings.TrimSpace(title), "")
	s = spaceRunRe.ReplaceAllString(s, " ")
	s = cjkGapRe.ReplaceAllString(s, "$1$2")
	s = strings.TrimSpace(trailingHashRe.ReplaceAllString(s, ""))
	if s == "" {
		return ""
	}
	if utf8.RuneCountInString(s) <= 12 && !cnPunctRe.MatchString(s) {
		return s
	}
	if utf8.RuneCountInString(s) >= 6 {
		for _, p := range noisePrefixes {
			if strings.HasPrefix(s, p) {
				return ""
			}
		}
		if strings.Contains(s, "格式") {
			return ""
		}
	}
	// anchorTitles is ordered longest-first within each tier.
	for _, anchor := range anchorTitles {
		if strings.Contains(s, anchor) {
			return anchor
		}
	}
	if parts := splitPunctRe.Split(s, 2); len(parts) > 0 {
		s = strings.TrimSpace(parts[0])
	}
	if utf8.RuneCountInString(s) > 18 {
		s = strings.TrimSpace(string([]rune(s)[:18]))
	}
	return s
}

// Titles that never become standalone generated sections.
var bannedSections = map[string]bool{
	"摘要": true, "关键词": true, "目录": true,
	"Abstract": true, "Keywords": true, "建议": true, "附录": true,
}

// SanitizeSections cleans a proposed section list: titles are normalized,
// banned and duplicate entries dropped, and reference sections moved to the
// end so evidence placeholders always render last.
func SanitizeSections(sections []string, cls Classifier) []string {
	if cls == nil {
		cls = KeywordClassifier{}
	}
	out := make([]string, 0, len(sections))
	refs := make([]string, 0, 1)
	seen := make(map[string]bool, len(sections))
	for _, s := range sections {
		title := CleanTitle(s)
		if title == "" || bannedSections[title] || seen[title] {
			continue
		}
		seen[title] = true
		if cls.IsReference(title) {
			refs = append(refs, title)
			continue
		}
		out = append(out, title)
	}
	return append(out, refs...)
}

// SectionWeight guesses a section's share of the document by role. Reference
// lists are short; method-like sections carry the bulk of the prose.
func SectionWeight(title string, cls Classifier) float64 {
	if cls == nil {
		cls = KeywordClassifier{}
	}
	s := strings.TrimSpace(title)
	if s == "" {
		return 1.0
	}
	if cls.IsReference(s) {
		return 0.4
	}
	switch cls.Classify(s) {
	case TypeIntro, TypeConclusion:
		return 0.8
	case TypeMethod:
		return 1.2
	default:
		return 1.0
	}
}
