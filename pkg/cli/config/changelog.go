package config

import (
	"strings"

	"github.com/m-mizutani/ghchangelog/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Changelog holds the options of a changelog generation
type Changelog struct {
	ConfigPath string

	Names    []string
	Releases []string
	Missing  []string

	Headings     string
	Merge        bool
	MergePattern string
	Include      string
	Exclude      string
	From         string
	To           string
	Output       string
	Flush        bool
}

// Flags returns CLI flags for changelog generation
func (c *Changelog) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "TOML configuration file",
			Destination: &c.ConfigPath,
			Sources:     cli.EnvVars("GHCHANGELOG_CONFIG"),
		},
		&cli.StringSliceFlag{
			Name:        "name",
			Aliases:     []string{"n"},
			Usage:       "Name to use instead of <owner>/<repo>, given once per repository",
			Destination: &c.Names,
		},
		&cli.StringSliceFlag{
			Name:        "releases",
			Aliases:     []string{"r"},
			Usage:       "Include releases found in the repository (yes/no), given once per repository. Only the primary repository is included by default",
			Destination: &c.Releases,
		},
		&cli.StringSliceFlag{
			Name:        "missing",
			Aliases:     []string{"m"},
			Usage:       "Report releases missing from the repository (yes/no), given once per repository",
			Destination: &c.Missing,
		},
		&cli.StringFlag{
			Name:        "headings",
			Usage:       "Headings to insert above release notes (auto, secondary, all)",
			Value:       string(model.HeadingsAuto),
			Destination: &c.Headings,
			Sources:     cli.EnvVars("GHCHANGELOG_HEADINGS"),
		},
		&cli.BoolFlag{
			Name:        "merge",
			Usage:       "Merge list items from every repository into one list per release",
			Destination: &c.Merge,
			Sources:     cli.EnvVars("GHCHANGELOG_MERGE"),
		},
		&cli.StringFlag{
			Name:        "merge-pattern",
			Usage:       "Regular expression matching list items in merge mode",
			Destination: &c.MergePattern,
			Sources:     cli.EnvVars("GHCHANGELOG_MERGE_PATTERN"),
		},
		&cli.StringFlag{
			Name:        "include",
			Usage:       "Only include tags matching this regular expression",
			Destination: &c.Include,
			Sources:     cli.EnvVars("GHCHANGELOG_INCLUDE"),
		},
		&cli.StringFlag{
			Name:        "exclude",
			Usage:       "Exclude tags matching this regular expression",
			Destination: &c.Exclude,
			Sources:     cli.EnvVars("GHCHANGELOG_EXCLUDE"),
		},
		&cli.StringFlag{
			Name:        "from",
			Usage:       "Oldest release to include",
			Destination: &c.From,
		},
		&cli.StringFlag{
			Name:        "to",
			Usage:       "Newest release to include",
			Destination: &c.To,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Write output to a file. Content before the first version heading ('## [') is preserved",
			Destination: &c.Output,
			Sources:     cli.EnvVars("GHCHANGELOG_OUTPUT"),
		},
		&cli.BoolFlag{
			Name:        "flush",
			Usage:       "Ignore cached releases and refresh the cache",
			Destination: &c.Flush,
		},
	}
}

type repoSpec struct {
	slug     string
	name     string
	releases *bool
	missing  *bool
}

// Request builds a changelog request from repository slugs given on the
// command line, the configuration file and the flags. isSet reports whether a
// flag was given explicitly; explicit flags override the file.
func (c *Changelog) Request(slugs []string, isSet func(name string) bool) (*model.ChangelogRequest, error) {
	file := &File{}
	if c.ConfigPath != "" {
		loaded, err := LoadFile(c.ConfigPath)
		if err != nil {
			return nil, err
		}
		file = loaded
	}

	var specs []repoSpec
	if len(slugs) > 0 {
		for _, slug := range slugs {
			specs = append(specs, repoSpec{slug: slug})
		}
	} else {
		for _, r := range file.Repositories {
			specs = append(specs, repoSpec{slug: r.Slug, name: r.Name, releases: r.Releases, missing: r.Missing})
		}
	}

	if len(specs) == 0 {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "no repository given; pass <owner>/<repo> or use a config file")
	}

	releases, err := parseBools(c.Releases)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid --releases value")
	}
	missing, err := parseBools(c.Missing)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid --missing value")
	}

	repos := make([]*model.Repository, 0, len(specs))
	for i, entry := range specs {
		repo, err := model.ParseRepository(i, entry.slug)
		if err != nil {
			return nil, err
		}

		if i < len(c.Names) && c.Names[i] != "" {
			repo.DisplayName = c.Names[i]
		} else if entry.name != "" {
			repo.DisplayName = entry.name
		}

		// Once --releases is given, repositories it does not cover are excluded
		switch {
		case isSet("releases"):
			repo.IncludeReleases = i < len(releases) && releases[i]
		case entry.releases != nil:
			repo.IncludeReleases = *entry.releases
		default:
			repo.IncludeReleases = i == 0
		}

		switch {
		case isSet("missing"):
			repo.ReportMissing = i < len(missing) && missing[i]
		case entry.missing != nil:
			repo.ReportMissing = *entry.missing
		}

		repos = append(repos, repo)
	}

	pick := func(flag, flagValue, fileValue string) string {
		if isSet(flag) || fileValue == "" {
			return flagValue
		}
		return fileValue
	}

	merge := c.Merge
	if !isSet("merge") && file.Merge != nil {
		merge = *file.Merge
	}

	return &model.ChangelogRequest{
		Repositories: repos,
		Options: model.Options{
			Include:         pick("include", c.Include, file.Include),
			Exclude:         pick("exclude", c.Exclude, file.Exclude),
			From:            pick("from", c.From, file.From),
			To:              pick("to", c.To, file.To),
			Headings:        model.HeadingMode(pick("headings", c.Headings, file.Headings)),
			Merge:           merge,
			ListItemPattern: pick("merge-pattern", c.MergePattern, file.MergePattern),
		},
		OutputPath: pick("output", c.Output, file.Output),
		FlushCache: c.Flush,
	}, nil
}

func parseBools(values []string) ([]bool, error) {
	out := make([]bool, 0, len(values))
	for _, v := range values {
		b, err := ParseBool(v)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// ParseBool accepts yes/no, y/n, true/false, on/off and 1/0, case-insensitively.
// An empty value is true.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "yes", "y", "true", "on", "1":
		return true, nil
	case "no", "n", "false", "off", "0":
		return false, nil
	}
	return false, goerr.Wrap(model.ErrInvalidArgument, "invalid boolean value", goerr.V("value", s))
}

var optionalValueFlags = map[string]struct{}{
	"-r": {}, "--releases": {}, "-releases": {},
	"-m": {}, "--missing": {}, "-missing": {},
}

// ExpandBareFlags lets --releases and --missing be given without a value by
// inserting "yes" after them unless a boolean value follows. Arguments after
// "--" are left untouched.
func ExpandBareFlags(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return append(out, args[i:]...)
		}
		out = append(out, arg)

		if _, ok := optionalValueFlags[arg]; !ok {
			continue
		}
		if i+1 < len(args) {
			if _, err := ParseBool(args[i+1]); err == nil {
				continue
			}
		}
		out = append(out, "yes")
	}
	return out
}
