package docir

import (
	"bufio"
	"strings"
)

// Split parses markdown-ish text into a section tree. Headings open sections
// at their level; blank-line-separated runs become paragraph blocks and
// bullet runs become list blocks. Content before the first heading lands in
// an untitled level-1 section so no text is lost.
func Split(title, content string) *Document {
	doc := &Document{Title: strings.TrimSpace(title)}
	if strings.TrimSpace(content) == "" {
		return doc
	}

	// stack[i] is the most recent open section at level i+1.
	var stack []*Section
	current := func() *Section {
		if len(stack) == 0 {
			sec := &Section{ID: NewID(), Title: "", Level: 1}
			doc.Sections = append(doc.Sections, sec)
			stack = []*Section{sec}
		}
		return stack[len(stack)-1]
	}

	openSection := func(level int, heading string) {
		if level < 1 {
			level = 1
		}
		if level > 6 {
			level = 6
		}
		sec := &Section{ID: NewID(), Title: heading, Level: level}
		for len(stack) > 0 && stack[len(stack)-1].Level >= level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			doc.Sections = append(doc.Sections, sec)
		} else {
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, sec)
		}
		stack = append(stack, sec)
	}

	var para []string
	var list []string
	flushPara := func() {
		if len(para) == 0 {
			return
		}
		current().Blocks = append(current().Blocks, Block{
			ID:   NewID(),
			Type: BlockParagraph,
			Text: strings.Join(para, "\n"),
		})
		para = nil
	}
	flushList := func() {
		if len(list) == 0 {
			return
		}
		current().Blocks = append(current().Blocks, Block{
			ID:    NewID(),
			Type:  BlockList,
			Items: append([]string(nil), list...),
		})
		list = nil
	}

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if level, heading, ok := parseHeading(trimmed); ok {
			flushPara()
			flushList()
			openSection(level, heading)
			current().Blocks = append(current().Blocks, Block{
				ID:    NewID(),
				Type:  BlockHeading,
				Level: level,
				Text:  heading,
			})
			continue
		}

		if item, ok := parseListItem(trimmed); ok {
			flushPara()
			list = append(list, item)
			continue
		}

		if trimmed == "" {
			flushPara()
			flushList()
			continue
		}

		flushList()
		para = append(para, trimmed)
	}
	flushPara()
	flushList()
	return doc
}

func parseHeading(line string) (int, string, bool) {
	if !strings.HasPrefix(line, "#") {
		return 0, "", false
	}
	level := 0
	for _, r := range line {
		if r != '#' {
			break
		}
		level++
	}
	if level < 1 || level > 6 || len(line) <= level || line[level] != ' ' {
		return 0, "", false
	}
	return level, strings.TrimSpace(line[level:]), true
}

func parseListItem(line string) (string, bool) {
	for _, prefix := range []string{"- ", "* ", "+ "} {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(line[len(prefix):]), true
		}
	}
	return "", false
}
