// Package migrations embeds the SQL schema migrations for the storefront
// database. Files run in lexical order and each applies exactly once.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
