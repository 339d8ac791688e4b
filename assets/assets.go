// Package assets embeds the stylesheet and static files served under /assets.
package assets

import "embed"

//go:embed css static
var Assets embed.FS
