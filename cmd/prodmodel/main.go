// Command prodmodel inspects and arranges the properties of product model
// types.
package main

import (
	"os"

	"github.com/mesh-intelligence/prodmodel/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
