package changelog

import (
	"regexp"

	"github.com/m-mizutani/ghchangelog/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// TagFilter decides which tags are rendered and which may serve as compare
// URL endpoints
type TagFilter struct {
	include *regexp.Regexp
	exclude *regexp.Regexp
	from    string
	to      string
}

// NewTagFilter compiles the include and exclude patterns of opts
func NewTagFilter(opts model.Options) (*TagFilter, error) {
	f := &TagFilter{
		from: opts.From,
		to:   opts.To,
	}

	var err error
	if opts.Include != "" {
		if f.include, err = regexp.Compile(opts.Include); err != nil {
			return nil, goerr.Wrap(model.ErrInvalidArgument, "invalid include pattern",
				goerr.V("pattern", opts.Include), goerr.V("cause", err.Error()))
		}
	}
	if opts.Exclude != "" {
		if f.exclude, err = regexp.Compile(opts.Exclude); err != nil {
			return nil, goerr.Wrap(model.ErrInvalidArgument, "invalid exclude pattern",
				goerr.V("pattern", opts.Exclude), goerr.V("cause", err.Error()))
		}
	}

	return f, nil
}

// Includes reports whether tag passes the exclude and include patterns. With
// checkFrom, tags older than the "from" tag are rejected too.
func (f *TagFilter) Includes(tag string, checkFrom bool) bool {
	if f == nil {
		return true
	}
	if f.exclude != nil && f.exclude.MatchString(tag) {
		return false
	}
	if f.include != nil && !f.include.MatchString(tag) {
		return false
	}
	if checkFrom && f.from != "" && CompareVersions(tag, f.from) < 0 {
		return false
	}
	return true
}

// From returns the oldest tag to render, or ""
func (f *TagFilter) From() string {
	if f == nil {
		return ""
	}
	return f.from
}

// To returns the newest tag to render, or ""
func (f *TagFilter) To() string {
	if f == nil {
		return ""
	}
	return f.to
}
