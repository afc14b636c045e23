// Package migrations embeds the schema of the client's local session store.
package migrations

import "embed"

//go:embed sqlite/*.sql
var Migrations embed.FS
