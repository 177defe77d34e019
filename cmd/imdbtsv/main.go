// Command imdbtsv downloads and parses the IMDb title.basics dataset.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
