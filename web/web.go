// Package web holds the HTML templates served by the consultation pages.
package web

import "embed"

//go:embed templates/*.html
var Templates embed.FS
