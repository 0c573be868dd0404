package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/multierr"
)

const (
	upMarker   = "-- +goose Up"
	downMarker = "-- +goose Down"
)

var migrationFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// ValidateDir checks every .sql file in dir for a versioned name, a unique
// version, and an Up section followed by a Down section. All problems are
// reported together.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	var errs error
	versions := map[string]string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".sql" {
			continue
		}
		match := migrationFileRe.FindStringSubmatch(name)
		if match == nil {
			errs = multierr.Append(errs, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name))
			continue
		}
		if prev, ok := versions[match[1]]; ok {
			errs = multierr.Append(errs, fmt.Errorf("duplicate migration version %s in %q and %q", match[1], prev, name))
		}
		versions[match[1]] = name
		errs = multierr.Append(errs, checkSections(filepath.Join(dir, name)))
	}
	if len(versions) == 0 && errs == nil {
		return fmt.Errorf("no migrations found in %q", dir)
	}
	return errs
}

func checkSections(path string) error {
	body, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file %q: %w", path, err)
	}
	text := string(body)
	up := strings.Index(text, upMarker)
	down := strings.Index(text, downMarker)
	switch {
	case up < 0:
		return fmt.Errorf("migration %q missing %q", filepath.Base(path), upMarker)
	case down < 0:
		return fmt.Errorf("migration %q missing %q", filepath.Base(path), downMarker)
	case down < up:
		return fmt.Errorf("migration %q has %q before %q", filepath.Base(path), downMarker, upMarker)
	}
	return nil
}
