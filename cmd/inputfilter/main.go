// inputfilter builds and runs configuration-driven input filters.
package main

import (
	"os"

	"github.com/hupe1980/inputfilter/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
