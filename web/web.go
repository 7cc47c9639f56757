// Package web embeds the server's HTML templates.
package web

import "embed"

//go:embed templates/*.html
var Templates embed.FS
