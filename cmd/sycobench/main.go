// sycobench measures self-sycophancy: whether a model rates its own pull
// requests higher than identical ones attributed to another model.
package main

import (
	"os"

	"github.com/agenttrace/sycobench/cmd/sycobench/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
