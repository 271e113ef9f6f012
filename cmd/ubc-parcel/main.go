// Ubc-parcel builds ubc.yaml's imports as separate entry points.
package main

import (
	"github.com/albertocavalcante/ubc/internal/cli"
	"github.com/albertocavalcante/ubc/pkg/config"
)

func main() {
	cli.ExecuteMode("ubc-parcel", config.ModeParcel)
}
