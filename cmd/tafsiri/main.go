package main

import (
	"os"

	"github.com/tafsiri/tafsiri/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
