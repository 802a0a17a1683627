// Package logging configures the process-wide logrus logger.
package logging

import (
	"strings"

	log "github.com/sirupsen/logrus"
)

// DefaultLevel is used when LOG_LEVEL is unset.
const DefaultLevel = "info"

// Init parses level and installs the text formatter. An invalid level is
// returned as an error and leaves the logger untouched.
func Init(level string) error {
	if strings.TrimSpace(level) == "" {
		level = DefaultLevel
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}

	log.SetFormatter(&log.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
	})
	log.SetLevel(lvl)
	return nil
}
