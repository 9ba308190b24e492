package web

import "embed"

// Templates holds base.html plus one file per page.
//
//go:embed templates/*.html
var Templates embed.FS
