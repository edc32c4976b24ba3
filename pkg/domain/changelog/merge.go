package changelog

import (
	"regexp"
	"strings"

	"github.com/m-mizutani/ghchangelog/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// DefaultListItemPattern matches bullet and numbered Markdown list items,
// optionally indented
const DefaultListItemPattern = `^\s*(?:[-*+]|\d+[.)])\s+`

var (
	headingPattern = regexp.MustCompile(`^#{1,6}\s`)
	fencePattern   = regexp.MustCompile("^\\s*(?:```|~~~)")
)

// ListMerger merges release notes from several repositories into one body,
// consolidating their Markdown lists and dropping duplicate items
type ListMerger struct {
	item *regexp.Regexp
}

// NewListMerger compiles pattern, or DefaultListItemPattern if pattern is empty
func NewListMerger(pattern string) (*ListMerger, error) {
	if pattern == "" {
		pattern = DefaultListItemPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "invalid list item pattern",
			goerr.V("pattern", pattern), goerr.V("cause", err.Error()))
	}
	return &ListMerger{item: re}, nil
}

type mergeSection struct {
	heading string
	prose   []string
	items   []string
	seen    map[string]struct{}
}

func (s *mergeSection) render() string {
	var parts []string
	if s.heading != "" {
		parts = append(parts, s.heading)
	}
	parts = append(parts, s.prose...)
	if len(s.items) > 0 {
		parts = append(parts, strings.Join(s.items, "\n"))
	}
	return strings.Join(parts, "\n\n")
}

// Merge joins notes with blank lines and merges their list items. Items are
// grouped under the nearest preceding heading, so lists under identical
// headings become one list. Prose keeps its original order and each section's
// list follows its prose. Without any list item the plain concatenation is
// returned.
func (m *ListMerger) Merge(notes []string) string {
	bodies := make([]string, 0, len(notes))
	for _, note := range notes {
		if note = strings.TrimSpace(normalizeEOL(note)); note != "" {
			bodies = append(bodies, note)
		}
	}
	text := strings.Join(bodies, "\n\n")
	lines := strings.Split(text, "\n")

	if !m.hasListItem(lines) {
		return text
	}

	root := &mergeSection{seen: make(map[string]struct{})}
	sections := []*mergeSection{root}
	byHeading := make(map[string]*mergeSection)
	cur := root

	var para []string
	flush := func() {
		if len(para) > 0 {
			cur.prose = append(cur.prose, strings.Join(para, "\n"))
			para = nil
		}
	}

	// index of the item continuation lines attach to; -1 for none, -2 while
	// skipping a duplicate
	last := -1
	skipIndent := 0
	inFence := false

	for _, line := range lines {
		if inFence || fencePattern.MatchString(line) {
			if fencePattern.MatchString(line) {
				inFence = !inFence
			}
			para = append(para, line)
			last = -1
			continue
		}

		switch {
		case strings.TrimSpace(line) == "":
			flush()
			last = -1

		case last == -2 && indentWidth(line) > skipIndent:
			// nested under a dropped duplicate

		case m.item.MatchString(line):
			flush()
			key := strings.Join(strings.Fields(line), " ")
			if _, dup := cur.seen[key]; dup {
				last = -2
				skipIndent = indentWidth(line)
				break
			}
			cur.seen[key] = struct{}{}
			cur.items = append(cur.items, line)
			last = len(cur.items) - 1

		case last != -1 && (line[0] == ' ' || line[0] == '\t'):
			if last >= 0 {
				cur.items[last] += "\n" + line
			}

		case headingPattern.MatchString(line):
			flush()
			key := strings.Join(strings.Fields(line), " ")
			sec, ok := byHeading[key]
			if !ok {
				sec = &mergeSection{heading: line, seen: make(map[string]struct{})}
				byHeading[key] = sec
				sections = append(sections, sec)
			}
			cur = sec
			last = -1

		default:
			para = append(para, line)
			last = -1
		}
	}
	flush()

	var out []string
	for _, sec := range sections {
		if s := sec.render(); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "\n\n")
}

// indentWidth counts leading whitespace, a tab standing for four columns
func indentWidth(line string) int {
	n := 0
	for _, r := range line {
		switch r {
		case ' ':
			n++
		case '\t':
			n += 4
		default:
			return n
		}
	}
	return n
}

func (m *ListMerger) hasListItem(lines []string) bool {
	for _, line := range lines {
		if m.item.MatchString(line) {
			return true
		}
	}
	return false
}
