package service

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Janitor tracks the temporary audio artifacts of one request and removes
// them on every exit path. Removal errors are logged and swallowed so
// cleanup never masks the request's primary failure.
type Janitor struct {
	paths []string
	log   zerolog.Logger
}

// NewJanitor creates a janitor for one request.
func NewJanitor() *Janitor {
	return &Janitor{
		log: log.With().Str("component", "janitor").Logger(),
	}
}

// Track registers a path for removal. Empty paths and duplicates (the
// transcoder may return its input unchanged) are tolerated.
func (j *Janitor) Track(path string) {
	if path == "" {
		return
	}
	for _, p := range j.paths {
		if p == path {
			return
		}
	}
	j.paths = append(j.paths, path)
}

// Cleanup removes every tracked path. Intended for defer.
func (j *Janitor) Cleanup() {
	for _, path := range j.paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			j.log.Warn().Err(err).Str("path", path).Msg("failed to remove temp file")
		}
	}
	j.paths = nil
}
