package main

import (
	"github.com/joho/godotenv"

	"teachmatch/internal/cli"
)

func main() {
	// Best effort: a missing .env file is fine, the environment may carry
	// the API key directly.
	_ = godotenv.Load()

	cli.Execute()
}
