package changelog

import (
	"slices"
	"strings"
	"time"

	"github.com/m-mizutani/ghchangelog/pkg/domain/model"
)

// TagEntry holds everything known about one tag across repositories
type TagEntry struct {
	Tag  string
	Date time.Time

	// notes[i] is absent if repository i never released Tag and nil if it
	// released Tag without notes
	notes map[int]*string
}

// Note returns repository repoIndex's notes for the tag. ok is false if the
// repository has no record of the tag.
func (e *TagEntry) Note(repoIndex int) (note *string, ok bool) {
	note, ok = e.notes[repoIndex]
	return note, ok
}

// Collation is the merged timeline of every repository's releases
type Collation struct {
	// Tags with at least one recorded note, newest version first
	Tags []*TagEntry

	// chains[i][tag] is the release of repository i that tag is compared with
	chains []map[string]string
}

// PreviousTag returns the older tag repository repoIndex compares tag with
func (c *Collation) PreviousTag(repoIndex int, tag string) (string, bool) {
	if repoIndex < 0 || repoIndex >= len(c.chains) {
		return "", false
	}
	prev, ok := c.chains[repoIndex][tag]
	return prev, ok
}

// Collate merges per-repository releases into a single timeline. releases[i]
// holds the records of repos[i], newest first. Repositories are processed in
// order, which fixes each tag's date and the repositories that may add notes
// to it.
func Collate(repos []*model.Repository, releases [][]*model.ReleaseRecord, filter *TagFilter) *Collation {
	c := &Collation{
		chains: make([]map[string]string, len(repos)),
	}

	entries := make(map[string]*TagEntry)
	dates := make(map[string]time.Time)
	var order []string

	for i, repo := range repos {
		c.chains[i] = make(map[string]string)
		var records []*model.ReleaseRecord
		if i < len(releases) {
			records = releases[i]
		}

		prevTag := ""
		for _, rel := range records {
			tag := rel.Tag

			entry, seen := entries[tag]
			if repo.IncludeReleases || seen {
				if !seen {
					entry = &TagEntry{Tag: tag, notes: make(map[int]*string)}
					entries[tag] = entry
					order = append(order, tag)
				}
				entry.notes[i] = normalizeBody(rel.Body)
			}

			if _, ok := dates[tag]; !ok {
				dates[tag] = rel.CreatedAt
			}

			if !filter.Includes(tag, true) {
				continue
			}
			if prevTag != "" {
				c.chains[i][prevTag] = tag
			}
			prevTag = tag
		}
	}

	for _, tag := range order {
		entry := entries[tag]
		entry.Date = dates[tag]
		c.Tags = append(c.Tags, entry)
	}
	slices.SortStableFunc(c.Tags, func(a, b *TagEntry) int {
		return CompareVersions(b.Tag, a.Tag)
	})

	return c
}

func normalizeBody(body *string) *string {
	if body == nil {
		return nil
	}
	s := strings.TrimSpace(normalizeEOL(*body))
	if s == "" {
		return nil
	}
	return &s
}
