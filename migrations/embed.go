package migrations

import "embed"

// FS holds the versioned SQL migrations applied by internal/migration.
//
//go:embed *.sql
var FS embed.FS
