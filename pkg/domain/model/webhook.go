package model

import "time"

// ReleaseEvent is a "release" webhook delivery
type ReleaseEvent struct {
	DeliveryID string
	Action     string
	Owner      string
	Repo       string
	Tag        string
	ReceivedAt time.Time
}

// Slug returns "<owner>/<repo>" of the repository the release belongs to
func (e *ReleaseEvent) Slug() string {
	return e.Owner + "/" + e.Repo
}

// ChangesReleases reports whether the action alters the published releases
// or their notes. Draft creation does not.
func (e *ReleaseEvent) ChangesReleases() bool {
	switch e.Action {
	case "published", "unpublished", "released", "prereleased", "edited", "deleted":
		return true
	}
	return false
}

// HealthStatus is the health check response
type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}
