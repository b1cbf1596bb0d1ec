// pav watches a PlantUML file and re-renders the diagram on every save.
package main

import (
	"os"

	"github.com/hupe1980/pav/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
