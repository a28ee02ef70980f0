// Package questions embeds the sample catalog shipped with the player.
package questions

import "embed"

// FS holds catalog.json and the question files it lists.
//
//go:embed *.json
var FS embed.FS
