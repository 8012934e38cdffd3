// Package mapty embeds the browser frontend served by cmd/mapty.
package mapty

import "embed"

//go:embed web/dist
var WebFS embed.FS
