package version

import (
	"fmt"
	"strings"

	"drafter/internal/docir"
)

// Summary is a structural diff reduced to an operation tally. Used for
// changelog and telemetry, not merge resolution.
type Summary struct {
	Insert  int `json:"insert"`
	Delete  int `json:"delete"`
	Replace int `json:"replace"`
}

// DiffSummary tallies structural operations between two document trees.
func DiffSummary(prev, next *docir.Document) Summary {
	var out Summary
	for _, op := range docir.DiffOps(prev, next) {
		switch op.Kind {
		case docir.OpInsert:
			out.Insert++
		case docir.OpDelete:
			out.Delete++
		case docir.OpReplace:
			out.Replace++
		}
	}
	return out
}

// LogEntry is one history line, newest first.
type LogEntry struct {
	VersionID  string   `json:"version_id"`
	ParentID   string   `json:"parent_id,omitempty"`
	Message    string   `json:"message"`
	Author     string   `json:"author"`
	Tags       []string `json:"tags,omitempty"`
	Kind       string   `json:"kind,omitempty"`
	BranchName string   `json:"branch_name"`
	Summary    Summary  `json:"summary"`
	IsCurrent  bool     `json:"is_current"`
}

// Log walks a branch from its tip through parent links, newest first, with a
// per-entry diff summary against the parent.
func Log(s *Session, branch string, limit int) []LogEntry {
	if s == nil {
		return nil
	}
	if limit <= 0 {
		limit = 50
	}
	headID := s.Branches[branch]
	var out []LogEntry
	for id := headID; id != "" && len(out) < limit; {
		node := s.Versions[id]
		if node == nil {
			break
		}
		var summary Summary
		if parent := s.Versions[node.ParentID]; parent != nil {
			summary = DiffSummary(parent.DocStructure, node.DocStructure)
		}
		out = append(out, LogEntry{
			VersionID:  node.VersionID,
			ParentID:   node.ParentID,
			Message:    node.Message,
			Author:     node.Author,
			Tags:       node.Tags,
			Kind:       KindFromTags(node.Tags),
			BranchName: node.BranchName,
			Summary:    summary,
			IsCurrent:  id == s.CurrentVersionID,
		})
		id = node.ParentID
	}
	return out
}

// TreeEdge links a parent version to a child.
type TreeEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Tree returns every node plus the parent edges, for history visualization.
func Tree(s *Session) ([]*Node, []TreeEdge) {
	if s == nil {
		return nil, nil
	}
	nodes := make([]*Node, 0, len(s.Versions))
	edges := make([]TreeEdge, 0, len(s.Versions))
	for id, node := range s.Versions {
		nodes = append(nodes, node)
		if node.ParentID != "" {
			edges = append(edges, TreeEdge{From: node.ParentID, To: id})
		}
	}
	return nodes, edges
}

// Checkout restores the session working state to a committed version.
func Checkout(s *Session, versionID string) error {
	if s == nil {
		return fmt.Errorf("nil session")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	node := s.Versions[versionID]
	if node == nil {
		return fmt.Errorf("version %q not found", versionID)
	}
	s.DocText = node.DocText
	s.DocStructure = docir.Clone(node.DocStructure)
	s.CurrentVersionID = versionID
	return nil
}

// CreateBranch registers a new branch rooted at baseVersionID (or the current
// version when empty). A branch may be created before any commit; its tip
// stays empty until the first commit on it.
func CreateBranch(s *Session, name, baseVersionID string) error {
	if s == nil {
		return fmt.Errorf("nil session")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("branch name required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.Branches[name]; exists {
		return fmt.Errorf("branch %q already exists", name)
	}
	base := baseVersionID
	if base == "" {
		base = s.CurrentVersionID
	}
	if base != "" && s.Versions[base] == nil {
		return fmt.Errorf("base version %q not found", base)
	}
	s.Branches[name] = base
	return nil
}

// Tag adds a tag to a committed version; adding an existing tag is a no-op.
func Tag(s *Session, versionID, tag string) error {
	if s == nil {
		return fmt.Errorf("nil session")
	}
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return fmt.Errorf("tag required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	node := s.Versions[versionID]
	if node == nil {
		return fmt.Errorf("version %q not found", versionID)
	}
	node.Tags = appendTag(node.Tags, tag)
	return nil
}

// DiffText produces a unified-style line diff between two committed versions.
func DiffText(s *Session, fromID, toID string) ([]string, error) {
	if s == nil {
		return nil, fmt.Errorf("nil session")
	}
	from := s.Versions[fromID]
	to := s.Versions[toID]
	if from == nil || to == nil {
		return nil, fmt.Errorf("version not found")
	}

	oldLines := strings.Split(from.DocText, "\n")
	newLines := strings.Split(to.DocText, "\n")
	out := []string{
		"--- version " + fromID,
		"+++ version " + toID,
	}
	for _, op := range diffLines(oldLines, newLines) {
		out = append(out, op...)
	}
	return out, nil
}

// diffLines renders opcode runs as -/+/space prefixed lines.
func diffLines(oldLines, newLines []string) [][]string {
	ops := docir.DiffStrings(oldLines, newLines)
	out := make([][]string, 0, len(ops))
	for _, op := range ops {
		var chunk []string
		switch op.Kind {
		case docir.OpEqual:
			for _, l := range oldLines[op.OldStart:op.OldEnd] {
				chunk = append(chunk, " "+l)
			}
		case docir.OpDelete:
			for _, l := range oldLines[op.OldStart:op.OldEnd] {
				chunk = append(chunk, "-"+l)
			}
		case docir.OpInsert:
			for _, l := range newLines[op.NewStart:op.NewEnd] {
				chunk = append(chunk, "+"+l)
			}
		case docir.OpReplace:
			for _, l := range oldLines[op.OldStart:op.OldEnd] {
				chunk = append(chunk, "-"+l)
			}
			for _, l := range newLines[op.NewStart:op.NewEnd] {
				chunk = append(chunk, "+"+l)
			}
		}
		out = append(out, chunk)
	}
	return out
}
