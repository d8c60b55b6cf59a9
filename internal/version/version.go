// Package version keeps every committed document state as a node in a
// branchable, append-only history. Nodes are immutable once created;
// corrections commit new nodes, and branch tips move forward only.
package version

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"drafter/internal/docir"
)

// Node is one committed document snapshot. ParentID is empty only for roots.
type Node struct {
	VersionID    string          `json:"version_id"`
	ParentID     string          `json:"parent_id,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
	Message      string          `json:"message"`
	Author       string          `json:"author"`
	DocText      string          `json:"doc_text"`
	DocStructure *docir.Document `json:"doc_structure,omitempty"`
	Tags         []string        `json:"tags,omitempty"`
	BranchName   string          `json:"branch_name"`
}

// Session is the externally owned document state the graph operates on.
// Mutations happen in place; the caller persists the session afterward.
type Session struct {
	DocID            string            `json:"doc_id"`
	DocText          string            `json:"doc_text"`
	DocStructure     *docir.Document   `json:"doc_structure,omitempty"`
	Versions         map[string]*Node  `json:"versions"`
	Branches         map[string]string `json:"branches"`
	CurrentVersionID string            `json:"current_version_id,omitempty"`

	// Serializes tip-check-then-insert so concurrent commits cannot both
	// claim the same parent.
	mu sync.Mutex
}

// NewSession creates an empty, uncommitted session for a document.
func NewSession(docID string) *Session {
	return &Session{
		DocID:    docID,
		Versions: make(map[string]*Node),
		Branches: make(map[string]string),
	}
}

// NewVersionID returns a short unique version id.
func NewVersionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// CurrentBranch names the branch the session is on: "main" for a brand-new
// document, otherwise the branch recorded on the current tip.
func CurrentBranch(s *Session) string {
	if s == nil || s.CurrentVersionID == "" {
		return "main"
	}
	cur := s.Versions[s.CurrentVersionID]
	if cur == nil || strings.TrimSpace(cur.BranchName) == "" {
		return "main"
	}
	return cur.BranchName
}

// KindFromTags reduces a tag set to a version kind; major wins over minor.
func KindFromTags(tags []string) string {
	has := func(t string) bool {
		for _, tag := range tags {
			if tag == t {
				return true
			}
		}
		return false
	}
	if has("major") {
		return "major"
	}
	if has("minor") {
		return "minor"
	}
	return ""
}

// Commit records an explicit version. kind ("major"/"minor") is folded into
// the tags; when neither tags nor kind are given the commit defaults to major.
func Commit(s *Session, message, author string, tags []string, kind string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("nil session")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tagList := append([]string(nil), tags...)
	kind = strings.ToLower(strings.TrimSpace(kind))
	if len(tagList) == 0 && kind == "" {
		kind = "major"
	}
	if kind == "major" || kind == "minor" {
		tagList = appendTag(tagList, kind)
	}
	if message == "" {
		message = "save version"
	}
	return commitLocked(s, message, author, tagList), nil
}

// AutoCommit records a version on behalf of the system. Returns "" when
// there is nothing to commit: empty document text, or a tip already holding
// byte-identical text and structure. Auto commits always carry the minor and
// auto tags.
func AutoCommit(s *Session, message, author string, tags []string) string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	text := strings.TrimSpace(s.DocText)
	if text == "" {
		return ""
	}
	tagList := append([]string(nil), tags...)
	tagList = appendTag(tagList, "minor")
	tagList = appendTag(tagList, "auto")

	if cur := s.Versions[s.CurrentVersionID]; cur != nil {
		if strings.TrimSpace(cur.DocText) == text && docir.Equal(cur.DocStructure, s.DocStructure) {
			return ""
		}
	}
	if message == "" {
		message = "auto commit"
	}
	return commitLocked(s, message, author, tagList)
}

func commitLocked(s *Session, message, author string, tags []string) string {
	versionID := NewVersionID()
	branch := currentBranchLocked(s)
	node := &Node{
		VersionID:    versionID,
		ParentID:     s.CurrentVersionID,
		Timestamp:    time.Now(),
		Message:      message,
		Author:       author,
		DocText:      s.DocText,
		DocStructure: docir.Clone(s.DocStructure),
		Tags:         tags,
		BranchName:   branch,
	}
	s.Versions[versionID] = node
	s.CurrentVersionID = versionID
	s.Branches[branch] = versionID
	return versionID
}

func currentBranchLocked(s *Session) string {
	if s.CurrentVersionID == "" {
		return "main"
	}
	cur := s.Versions[s.CurrentVersionID]
	if cur == nil || strings.TrimSpace(cur.BranchName) == "" {
		return "main"
	}
	return cur.BranchName
}

func appendTag(tags []string, tag string) []string {
	for _, t := range tags {
		if t == tag {
			return tags
		}
	}
	return append(tags, tag)
}
