package changelog

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/m-mizutani/ghchangelog/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// subheadingPattern matches note headings that would collide with the "###"
// headings inserted above each repository's notes
var subheadingPattern = regexp.MustCompile(`(?m)^(#{3,5}) `)

// Renderer turns a Collation into changelog sections
type Renderer struct {
	repos    []*model.Repository
	filter   *TagFilter
	headings model.HeadingMode
	merger   *ListMerger // nil unless notes are merged
}

// NewRenderer returns a Renderer for repos. filter must be the filter the
// Collation was built with.
func NewRenderer(repos []*model.Repository, filter *TagFilter, opts model.Options) (*Renderer, error) {
	headings, err := model.ParseHeadingMode(string(opts.Headings))
	if err != nil {
		return nil, err
	}

	r := &Renderer{
		repos:    repos,
		filter:   filter,
		headings: headings,
	}

	if opts.Merge {
		if r.merger, err = NewListMerger(opts.ListItemPattern); err != nil {
			return nil, goerr.Wrap(err, "failed to configure list merging")
		}
	}

	return r, nil
}

type tagSection struct {
	tag     string
	date    string
	missing []string
	blocks  []string
}

// Rendered is the generated part of a changelog
type Rendered struct {
	sections []tagSection
	links    *LinkTable
}

// Tags returns the rendered tags, newest first
func (r *Rendered) Tags() []string {
	tags := make([]string, 0, len(r.sections))
	for _, s := range r.sections {
		tags = append(tags, s.tag)
	}
	return tags
}

// Links returns the link definitions collected while rendering
func (r *Rendered) Links() *LinkTable {
	return r.links
}

// Markdown returns the rendered sections followed by their link definitions,
// with "\n" line endings
func (r *Rendered) Markdown() string {
	var b strings.Builder

	for _, s := range r.sections {
		fmt.Fprintf(&b, "## [%s] - %s\n\n", s.tag, s.date)

		if len(s.missing) > 0 {
			for _, name := range s.missing {
				fmt.Fprintf(&b, "> %s %s was not released\n", name, s.tag)
			}
			b.WriteString("\n")
		}

		if len(s.blocks) > 0 {
			b.WriteString(strings.Join(s.blocks, "\n\n"))
			b.WriteString("\n\n")
		}
	}

	if r.links != nil {
		b.WriteString(r.links.Markdown())
	}

	return b.String()
}

// Render walks c.Tags newest first. Rendering starts at the "to" tag, if set,
// and stops after the "from" tag, if set.
func (r *Renderer) Render(c *Collation) *Rendered {
	out := &Rendered{links: NewLinkTable()}

	to, from := r.filter.To(), r.filter.From()
	started := to == ""

	for _, entry := range c.Tags {
		if !started {
			if entry.Tag != to {
				continue
			}
			started = true
		}

		if r.filter.Includes(entry.Tag, false) {
			newest := len(out.sections) == 0
			out.sections = append(out.sections, r.renderTag(c, entry, out.links, newest))
		}

		if from != "" && entry.Tag == from {
			break
		}
	}

	return out
}

func (r *Renderer) renderTag(c *Collation, entry *TagEntry, links *LinkTable, newest bool) tagSection {
	tag := entry.Tag
	section := tagSection{
		tag:  tag,
		date: entry.Date.UTC().Format("2006-01-02"),
	}

	var blocks, merged []string
	noteCount := 0
	lastNoteRepo := -1

	for i, repo := range r.repos {
		note, ok := entry.Note(i)
		if !ok {
			if repo.ReportMissing && !newest {
				section.missing = append(section.missing, repo.DisplayName)
			}
			continue
		}

		url := r.releaseURL(c, i, repo, tag)
		links.SetCanonical(tag, url)

		if note == nil {
			continue
		}
		noteCount++
		lastNoteRepo = i

		if r.merger != nil {
			merged = append(merged, *note)
			continue
		}

		if r.headings == model.HeadingsAll || !repo.IsPrimary() {
			if canonical, _ := links.Canonical(tag); canonical == url {
				blocks = append(blocks, fmt.Sprintf("### %s %s", repo.DisplayName, tag))
			} else {
				blocks = append(blocks, fmt.Sprintf("### %s [%s][%s %s]", repo.DisplayName, tag, repo.Slug(), tag))
				links.AddRepoLink(i, repo, tag, url)
			}
		}

		body := *note
		if len(r.repos) > 1 {
			body = subheadingPattern.ReplaceAllString(body, "#$1 ")
		}
		blocks = append(blocks, body)
	}

	if len(merged) > 0 {
		blocks = []string{r.merger.Merge(merged)}
	}

	// A lone heading adds nothing below the tag heading
	if r.headings == model.HeadingsAuto && noteCount == 1 && len(blocks) == 2 {
		blocks = blocks[1:]
		links.RemoveRepoLink(lastNoteRepo, tag)
	}

	section.blocks = blocks
	return section
}

func (r *Renderer) releaseURL(c *Collation, repoIndex int, repo *model.Repository, tag string) string {
	if prev, ok := c.PreviousTag(repoIndex, tag); ok {
		return fmt.Sprintf("%s/compare/%s...%s", repo.BaseURL(), prev, tag)
	}
	return fmt.Sprintf("%s/releases/tag/%s", repo.BaseURL(), tag)
}
