package config

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"firestige.xyz/webhookd/internal/log"
)

// LoadDefinitions walks dir recursively, parsing every regular file found as
// an event definition. A file that fails to read or parse is logged and
// skipped rather than aborting the whole scan, so one bad entry in an
// otherwise-valid directory does not block every other pipeline. A missing
// or unreadable events directory itself is returned as an error.
func LoadDefinitions(dir string) ([]EventDefinition, error) {
	var defs []EventDefinition

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			log.GetLogger().WithError(err).Warnf("unable to read %q", path)
			return nil
		}
		if d.IsDir() {
			return nil
		}

		log.GetLogger().Tracef("reading %s", path)
		data, err := os.ReadFile(path)
		if err != nil {
			log.GetLogger().WithError(err).Warnf("unable to read file %q", path)
			return nil
		}

		def, err := ParseDefinition(data)
		if err != nil {
			log.GetLogger().WithError(err).Errorf("unable to parse definition %q", path)
			return nil
		}

		defs = append(defs, def)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking events directory %q: %w", dir, err)
	}

	return defs, nil
}
