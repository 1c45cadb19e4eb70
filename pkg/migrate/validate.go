package migrate

import (
	"fmt"
	"io/fs"
	"regexp"
	"strings"
)

var migrationName = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// Validate checks every .sql file in fsys for a YYYYMMDDHHMMSS_name.sql
// filename, a unique version and both goose direction markers.
func Validate(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	versions := make(map[string]string, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		match := migrationName.FindStringSubmatch(name)
		if match == nil {
			return fmt.Errorf("migration %q: want YYYYMMDDHHMMSS_name.sql", name)
		}
		if prev, dup := versions[match[1]]; dup {
			return fmt.Errorf("migrations %q and %q share version %s", prev, name, match[1])
		}
		versions[match[1]] = name

		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read migration %q: %w", name, err)
		}
		for _, marker := range []string{"-- +goose Up", "-- +goose Down"} {
			if !strings.Contains(string(body), marker) {
				return fmt.Errorf("migration %q: missing %q", name, marker)
			}
		}
	}
	return nil
}
