// Package migrations embeds the SQL schema steps for the SQLite store.
// Files are named NNNN_description.sql and applied in version order.
package migrations

import "embed"

// FS contains all SQL migration files embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
