// Package scripts embeds the preset Risor node filters.
package scripts

import "embed"

// FS holds filters/<name>.risor. Each file is a single Risor expression
// evaluated once per rendered node.
//
//go:embed filters/*.risor
var FS embed.FS
