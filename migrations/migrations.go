// Package migrations embeds the schema so fuelctl can apply it without a checkout.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
