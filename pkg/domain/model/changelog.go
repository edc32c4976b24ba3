package model

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// HeadingMode controls which contributing repositories get a "###" heading
// above their release notes
type HeadingMode string

const (
	// HeadingsAuto inserts headings above notes from secondary repositories
	// unless there is only one contributing repository
	HeadingsAuto HeadingMode = "auto"
	// HeadingsSecondary always inserts headings above notes from secondary
	// repositories
	HeadingsSecondary HeadingMode = "secondary"
	// HeadingsAll inserts headings above notes from every repository
	HeadingsAll HeadingMode = "all"
)

// HeadingModes returns the accepted heading modes in display order
func HeadingModes() []HeadingMode {
	return []HeadingMode{HeadingsAuto, HeadingsSecondary, HeadingsAll}
}

// ParseHeadingMode parses s, treating "" as HeadingsAuto
func ParseHeadingMode(s string) (HeadingMode, error) {
	if s == "" {
		return HeadingsAuto, nil
	}
	for _, m := range HeadingModes() {
		if strings.EqualFold(s, string(m)) {
			return m, nil
		}
	}
	return "", goerr.Wrap(ErrInvalidArgument, "invalid heading mode", goerr.V("headings", s))
}

// Options are the rendering options shared by every repository
type Options struct {
	Include         string // Only render tags matching this regular expression
	Exclude         string // Never render tags matching this regular expression
	From            string // Oldest tag to render
	To              string // Newest tag to render
	Headings        HeadingMode
	Merge           bool   // Merge and de-duplicate list items across repositories
	ListItemPattern string // Regular expression recognising list items in merge mode
}

// ChangelogRequest is a single changelog generation
type ChangelogRequest struct {
	Repositories []*Repository
	Options      Options
	OutputPath   string // "" or "-" writes to stdout
	FlushCache   bool
}

// WritesToStdout reports whether the changelog goes to standard output
func (r *ChangelogRequest) WritesToStdout() bool {
	return r.OutputPath == "" || r.OutputPath == "-"
}

// Tracks reports whether one of the requested repositories is slug
func (r *ChangelogRequest) Tracks(slug string) bool {
	for _, repo := range r.Repositories {
		if strings.EqualFold(repo.Slug(), slug) {
			return true
		}
	}
	return false
}

// ChangelogResult describes a generated changelog
type ChangelogResult struct {
	OutputPath string
	Tags       []string // Rendered tags, newest first
	Bytes      int
}
