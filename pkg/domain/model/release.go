package model

import "time"

// ReleaseRecord is a single release as returned by the release source, one
// sequence per repository, newest first.
type ReleaseRecord struct {
	RepoIndex int       `json:"repo_index"`
	Tag       string    `json:"tag_name"`
	CreatedAt time.Time `json:"created_at"`
	Body      *string   `json:"body,omitempty"` // nil if the release has no notes
}

// FetchOptions are forwarded to the release source
type FetchOptions struct {
	FlushCache bool
}
