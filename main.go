package main

import (
	"github.com/joho/godotenv"

	"room-reservation/cmd"
)

func main() {
	// Local .env is optional; environment variables win either way.
	godotenv.Load()

	cmd.Execute()
}
