package main

import (
	"fmt"
	"os"

	"github.com/arnavshah/roster-api-go/internal/config"
	"github.com/arnavshah/roster-api-go/pkg/auth"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	if len(os.Args) < 2 {
		fmt.Println("Usage: keygen <userID>")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	userID := os.Args[1]
	authn := auth.NewAuthenticator(cfg.JWTSecret, cfg.APIMasterSecret)
	fmt.Printf("Generated Key for %s:\n%s\n", userID, authn.GenerateHMACKey(userID))
}
