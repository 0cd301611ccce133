// Package embedded provides the default plugin template embedded in the po
// binary. `po init` writes it to the plugin root when none exists.
package embedded

import _ "embed"

// HooksJSON contains the default hooks.json plugin template.
//
//go:embed hooks.json
var HooksJSON []byte
