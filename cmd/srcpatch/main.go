// srcpatch removes obsolete lines and blocks from source files.
package main

import (
	"os"

	"github.com/hupe1980/srcpatch/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
