// Package migrations embeds the SQL schema files into the binary so the
// service can migrate its database without the files on disk.
package migrations

import "embed"

//go:embed *.sql
var files embed.FS

// FS holds the *.sql migration files at its root.
var FS = files
