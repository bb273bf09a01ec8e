// Package migrations embeds the schema migration files served to
// golang-migrate through its iofs source driver.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
