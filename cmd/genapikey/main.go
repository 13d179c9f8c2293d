package main

import (
	"fmt"
	"log"

	"rolebridge/core"
)

func main() {
	log.Printf("🔑 Generating new user API key...")

	// Generate a new secret key with "rbk" prefix for API access
	apiKey, err := core.NewSecretKey("rbk")
	if err != nil {
		log.Fatalf("❌ Failed to generate API key: %v", err)
	}

	fmt.Printf("Generated API Key: %s\n", apiKey)
	log.Printf("✅ Successfully generated API key")
}
