package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/pagelight/pagelight/cmd/pagelight/commands"
)

func main() {
	// Load environment variables; a missing .env is fine.
	_ = godotenv.Load()

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
