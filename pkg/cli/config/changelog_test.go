package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/ghchangelog/pkg/cli/config"
	"github.com/m-mizutani/ghchangelog/pkg/domain/model"
)

func setFlags(names ...string) func(string) bool {
	set := make(map[string]bool)
	for _, n := range names {
		set[n] = true
	}
	return func(name string) bool { return set[name] }
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ghchangelog.toml")
	gt.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestChangelog_Request_Positional(t *testing.T) {
	cfg := &config.Changelog{
		Names:    []string{"", "Library"},
		Missing:  []string{"no", "yes"},
		Headings: "auto",
		Output:   "CHANGELOG.md",
	}

	req, err := cfg.Request([]string{"acme/app", "acme/lib", "acme/tools"}, setFlags("name", "missing"))
	gt.NoError(t, err)
	gt.A(t, req.Repositories).Length(3)

	app, lib, tools := req.Repositories[0], req.Repositories[1], req.Repositories[2]
	gt.Equal(t, app.Index, 0)
	gt.Equal(t, app.DisplayName, "acme/app")
	gt.True(t, app.IncludeReleases)
	gt.False(t, app.ReportMissing)

	gt.Equal(t, lib.Index, 1)
	gt.Equal(t, lib.DisplayName, "Library")
	gt.False(t, lib.IncludeReleases)
	gt.True(t, lib.ReportMissing)

	gt.Equal(t, tools.DisplayName, "acme/tools")
	gt.False(t, tools.IncludeReleases)
	gt.False(t, tools.ReportMissing)

	gt.Equal(t, req.Options.Headings, model.HeadingsAuto)
	gt.Equal(t, req.OutputPath, "CHANGELOG.md")
}

func TestChangelog_Request_Releases(t *testing.T) {
	cfg := &config.Changelog{Releases: []string{"no", "yes"}}

	req, err := cfg.Request([]string{"acme/app", "acme/lib", "acme/tools"}, setFlags("releases"))
	gt.NoError(t, err)
	gt.False(t, req.Repositories[0].IncludeReleases)
	gt.True(t, req.Repositories[1].IncludeReleases)
	gt.False(t, req.Repositories[2].IncludeReleases)
}

func TestChangelog_Request_Errors(t *testing.T) {
	testCases := []struct {
		name  string
		cfg   *config.Changelog
		slugs []string
	}{
		{name: "no repository", cfg: &config.Changelog{}},
		{name: "malformed slug", cfg: &config.Changelog{}, slugs: []string{"acme"}},
		{name: "bad boolean", cfg: &config.Changelog{Missing: []string{"maybe"}}, slugs: []string{"acme/app"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.cfg.Request(tc.slugs, setFlags("missing"))
			gt.True(t, errors.Is(err, model.ErrInvalidArgument))
		})
	}
}

func TestChangelog_Request_ConfigFile(t *testing.T) {
	path := writeConfig(t, `
headings = "secondary"
merge = true
include = '^v\d'
output = "docs/CHANGELOG.md"

[[repository]]
slug = "acme/app"
name = "App"

[[repository]]
slug = "acme/lib"
releases = true
missing = true
`)

	t.Run("file values are used", func(t *testing.T) {
		cfg := &config.Changelog{ConfigPath: path, Headings: "auto"}

		req, err := cfg.Request(nil, setFlags())
		gt.NoError(t, err)
		gt.A(t, req.Repositories).Length(2)
		gt.Equal(t, req.Repositories[0].DisplayName, "App")
		gt.True(t, req.Repositories[0].IncludeReleases)
		gt.True(t, req.Repositories[1].IncludeReleases)
		gt.True(t, req.Repositories[1].ReportMissing)

		gt.Equal(t, req.Options.Headings, model.HeadingsSecondary)
		gt.True(t, req.Options.Merge)
		gt.Equal(t, req.Options.Include, `^v\d`)
		gt.Equal(t, req.OutputPath, "docs/CHANGELOG.md")
	})

	t.Run("explicit flags override the file", func(t *testing.T) {
		cfg := &config.Changelog{
			ConfigPath: path,
			Headings:   "all",
			Merge:      false,
			Output:     "-",
			Names:      []string{"Application"},
		}

		req, err := cfg.Request(nil, setFlags("headings", "merge", "output", "name"))
		gt.NoError(t, err)
		gt.Equal(t, req.Options.Headings, model.HeadingsAll)
		gt.False(t, req.Options.Merge)
		gt.Equal(t, req.OutputPath, "-")
		gt.Equal(t, req.Repositories[0].DisplayName, "Application")
	})

	t.Run("positional repositories replace file repositories", func(t *testing.T) {
		cfg := &config.Changelog{ConfigPath: path}

		req, err := cfg.Request([]string{"other/repo"}, setFlags())
		gt.NoError(t, err)
		gt.A(t, req.Repositories).Length(1)
		gt.Equal(t, req.Repositories[0].Slug(), "other/repo")
		gt.Equal(t, req.Options.Headings, model.HeadingsSecondary)
	})
}

func TestLoadFile(t *testing.T) {
	t.Run("unknown keys are rejected", func(t *testing.T) {
		path := writeConfig(t, `
heading = "all"
`)
		_, err := config.LoadFile(path)
		gt.True(t, errors.Is(err, model.ErrInvalidArgument))
	})

	t.Run("unknown repository keys are rejected", func(t *testing.T) {
		path := writeConfig(t, `
[[repository]]
slug = "acme/app"
title = "App"
`)
		_, err := config.LoadFile(path)
		gt.True(t, errors.Is(err, model.ErrInvalidArgument))
	})

	t.Run("syntax error", func(t *testing.T) {
		path := writeConfig(t, `headings = `)
		_, err := config.LoadFile(path)
		gt.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.LoadFile(filepath.Join(t.TempDir(), "none.toml"))
		gt.Error(t, err)
	})
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"", "yes", "Y", "true", "ON", "1"} {
		b, err := config.ParseBool(s)
		gt.NoError(t, err)
		gt.True(t, b)
	}
	for _, s := range []string{"no", "N", "False", "off", "0"} {
		b, err := config.ParseBool(s)
		gt.NoError(t, err)
		gt.False(t, b)
	}

	_, err := config.ParseBool("sometimes")
	gt.True(t, errors.Is(err, model.ErrInvalidArgument))
}

func TestExpandBareFlags(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "Bare flags before repositories",
			args:     []string{"ghchangelog", "generate", "-r", "-r", "acme/app", "acme/lib"},
			expected: []string{"ghchangelog", "generate", "-r", "yes", "-r", "yes", "acme/app", "acme/lib"},
		},
		{
			name:     "Explicit values are kept",
			args:     []string{"generate", "--releases", "no", "-m", "Y", "acme/app"},
			expected: []string{"generate", "--releases", "no", "-m", "Y", "acme/app"},
		},
		{
			name:     "Bare flag at the end",
			args:     []string{"generate", "acme/app", "--missing"},
			expected: []string{"generate", "acme/app", "--missing", "yes"},
		},
		{
			name:     "Equals form is left alone",
			args:     []string{"generate", "--releases=off", "acme/app"},
			expected: []string{"generate", "--releases=off", "acme/app"},
		},
		{
			name:     "Arguments after the terminator are left alone",
			args:     []string{"generate", "--", "-r", "acme/app"},
			expected: []string{"generate", "--", "-r", "acme/app"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Equal(t, config.ExpandBareFlags(tt.args), tt.expected)
		})
	}
}
