package changelog

import (
	"fmt"
	"slices"
	"strings"

	"github.com/m-mizutani/ghchangelog/pkg/domain/model"
)

type repoLink struct {
	tag string
	url string
}

// LinkTable collects the reference-style link definitions written at the end
// of a changelog
type LinkTable struct {
	tags      []string
	canonical map[string]string

	slugs   map[int]string
	perRepo map[int][]repoLink
}

// NewLinkTable returns an empty LinkTable
func NewLinkTable() *LinkTable {
	return &LinkTable{
		canonical: make(map[string]string),
		slugs:     make(map[int]string),
		perRepo:   make(map[int][]repoLink),
	}
}

// SetCanonical records url as the link for tag unless one is already recorded
func (t *LinkTable) SetCanonical(tag, url string) {
	if _, ok := t.canonical[tag]; ok {
		return
	}
	t.canonical[tag] = url
	t.tags = append(t.tags, tag)
}

// Canonical returns the link recorded for tag
func (t *LinkTable) Canonical(tag string) (string, bool) {
	url, ok := t.canonical[tag]
	return url, ok
}

// AddRepoLink records a repository-specific link for tag, labelled
// "<owner>/<repo> <tag>"
func (t *LinkTable) AddRepoLink(repoIndex int, repo *model.Repository, tag, url string) {
	t.slugs[repoIndex] = repo.Slug()
	t.perRepo[repoIndex] = append(t.perRepo[repoIndex], repoLink{tag: tag, url: url})
}

// RepoLink returns the repository-specific link for tag
func (t *LinkTable) RepoLink(repoIndex int, tag string) (string, bool) {
	for _, l := range t.perRepo[repoIndex] {
		if l.tag == tag {
			return l.url, true
		}
	}
	return "", false
}

// RemoveRepoLink drops the repository-specific link for tag, if any
func (t *LinkTable) RemoveRepoLink(repoIndex int, tag string) {
	links := t.perRepo[repoIndex]
	t.perRepo[repoIndex] = slices.DeleteFunc(links, func(l repoLink) bool {
		return l.tag == tag
	})
	if len(t.perRepo[repoIndex]) == 0 {
		delete(t.perRepo, repoIndex)
	}
}

// Markdown returns canonical links in the order they were recorded, then
// repository-specific links grouped by repository
func (t *LinkTable) Markdown() string {
	var b strings.Builder

	for _, tag := range t.tags {
		fmt.Fprintf(&b, "[%s]: %s\n", tag, t.canonical[tag])
	}

	indexes := make([]int, 0, len(t.perRepo))
	for i := range t.perRepo {
		indexes = append(indexes, i)
	}
	slices.Sort(indexes)

	for _, i := range indexes {
		for _, l := range t.perRepo[i] {
			fmt.Fprintf(&b, "[%s %s]: %s\n", t.slugs[i], l.tag, l.url)
		}
	}

	return b.String()
}
