package model

import "github.com/m-mizutani/goerr/v2"

// ErrInvalidArgument is wrapped by every configuration error that is detected
// before any release is fetched or any output is written.
var ErrInvalidArgument = goerr.New("invalid argument")
