// Package migrations carries the SQL schema applied by the db migrator.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
