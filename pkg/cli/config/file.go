package config

import (
	"errors"
	"os"

	"github.com/m-mizutani/ghchangelog/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
)

// File is the optional TOML configuration file
type File struct {
	Repositories []FileRepository `toml:"repository"`

	Headings     string `toml:"headings"`
	Merge        *bool  `toml:"merge"`
	MergePattern string `toml:"merge_pattern"`
	Include      string `toml:"include"`
	Exclude      string `toml:"exclude"`
	From         string `toml:"from"`
	To           string `toml:"to"`
	Output       string `toml:"output"`
}

// FileRepository is a [[repository]] table
type FileRepository struct {
	Slug     string `toml:"slug"`
	Name     string `toml:"name"`
	Releases *bool  `toml:"releases"`
	Missing  *bool  `toml:"missing"`
}

// LoadFile reads and strictly decodes the configuration file at path.
// Unknown keys are rejected.
func LoadFile(path string) (*File, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open config file", goerr.V("path", path))
	}
	defer fd.Close()

	var f File
	if err := toml.NewDecoder(fd).DisallowUnknownFields().Decode(&f); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, goerr.Wrap(model.ErrInvalidArgument, "unknown keys in config file",
				goerr.V("path", path), goerr.V("detail", strict.String()))
		}
		return nil, goerr.Wrap(err, "failed to parse config file", goerr.V("path", path))
	}

	return &f, nil
}
