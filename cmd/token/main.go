package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/seanblong/docask/internal/auth"
	"github.com/seanblong/docask/internal/config"
	"github.com/spf13/pflag"
)

func main() {
	_ = godotenv.Load()

	fs := pflag.NewFlagSet("docask-token", pflag.ExitOnError)
	subject := fs.String("subject", "", "Subject the token is issued to")

	cfg, err := config.Load("", fs)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	fs.Usage = cfg.Usage

	if *subject == "" {
		log.Fatal("--subject is required")
	}
	// Tokens are signed even when the API runs with auth disabled.
	a, err := auth.New(cfg.Auth.JwtSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL, true)
	if err != nil {
		log.Fatal(err)
	}
	token, err := a.Issue(*subject)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(token)
}
