// Ubc bundles the modules listed in ubc.yaml with a fixed build chain.
package main

import "github.com/albertocavalcante/ubc/internal/cli"

func main() {
	cli.Execute()
}
