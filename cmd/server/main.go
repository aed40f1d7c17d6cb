package main

import (
	"os"

	"school-finance-backend/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
