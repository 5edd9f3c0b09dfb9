package seed

import _ "embed"

//go:embed demo.yaml
var demoFixtures []byte
