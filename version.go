package facilitator

import _ "embed"

// Version is the release of the facilitator module.
//
//go:embed VERSION
var Version string
