package main

import (
	"log"
	"os"

	"github.com/grovetools/dtcli/internal/config"
)

func main() {
	data, err := config.Schema()
	if err != nil {
		log.Fatalf("Error generating schema: %v", err)
	}

	// Write to the repository root
	if err := os.WriteFile("config.schema.json", data, 0644); err != nil {
		log.Fatalf("Error writing schema file: %v", err)
	}

	log.Printf("Successfully generated config schema at config.schema.json")
}
