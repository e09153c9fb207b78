// Package templates embeds the HTML pages so the binary is self-contained.
// The rendering layer itself is intentionally minimal; presentation is not
// this application's concern.
package templates

import "embed"

//go:embed *.html
var FS embed.FS
