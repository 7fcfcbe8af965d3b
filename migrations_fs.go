package marketplaceauth

import (
	"embed"
	"io/fs"
)

// migrationsFS holds the marketplace-auth schema migration tree, including
// the sqlite alternatives under data/sql/migrations/sqlite.
//
//go:embed data/sql/migrations/*.sql data/sql/migrations/sqlite/*.sql
var migrationsFS embed.FS

// GetMigrationsFS returns the full embedded migration tree.
func GetMigrationsFS() fs.FS {
	return migrationsFS
}
