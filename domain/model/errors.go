// Package model provides the record, arena and intern pool types shared by a parse run.
package model

import "errors"

// ErrInvalidArenaSize is returned when an arena capacity is outside the addressable range
var ErrInvalidArenaSize = errors.New("invalid arena size")
