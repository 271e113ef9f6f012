// Ubc-wp builds ubc.yaml's imports through a generated ubc.js entry file.
package main

import (
	"github.com/albertocavalcante/ubc/internal/cli"
	"github.com/albertocavalcante/ubc/pkg/config"
)

func main() {
	cli.ExecuteMode("ubc-wp", config.ModeWebpack)
}
