package data

import _ "embed"

//go:embed fixtures.json
var Fixtures []byte
