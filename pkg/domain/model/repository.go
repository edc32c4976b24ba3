package model

import (
	"fmt"
	"regexp"

	"github.com/m-mizutani/goerr/v2"
)

var repoSlugPattern = regexp.MustCompile(`^([^/]+)/([^/]+)$`)

// Repository is a GitHub repository contributing release notes. Index 0 is the
// primary repository and display order follows Index.
type Repository struct {
	Index           int
	Owner           string
	Name            string
	DisplayName     string
	IncludeReleases bool // Releases found in this repository create changelog entries
	ReportMissing   bool // Report tags this repository did not release
}

// ParseRepository builds a Repository from an "<owner>/<repo>" slug. DisplayName
// defaults to the slug.
func ParseRepository(index int, slug string) (*Repository, error) {
	m := repoSlugPattern.FindStringSubmatch(slug)
	if m == nil {
		return nil, goerr.Wrap(ErrInvalidArgument, "invalid repo", goerr.V("repo", slug))
	}

	return &Repository{
		Index:       index,
		Owner:       m[1],
		Name:        m[2],
		DisplayName: slug,
	}, nil
}

// Slug returns "<owner>/<repo>"
func (r *Repository) Slug() string {
	return r.Owner + "/" + r.Name
}

// BaseURL returns the repository's web URL
func (r *Repository) BaseURL() string {
	return fmt.Sprintf("https://github.com/%s/%s", r.Owner, r.Name)
}

// IsPrimary reports whether r is the first configured repository
func (r *Repository) IsPrimary() bool {
	return r.Index == 0
}
