package migration

import (
	"embed"
	"io/fs"
)

const migrationsDir = "sql"

//go:embed sql/*.sql
var embeddedMigrations embed.FS

// EmbeddedFS exposes the versioned SQL files.
func EmbeddedFS() fs.FS {
	return embeddedMigrations
}
