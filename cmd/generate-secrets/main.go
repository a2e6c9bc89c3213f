package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/flyx/flyx-backend/internal/utils"
	"github.com/flyx/flyx-backend/pkg/jwt"
)

func main() {
	var (
		adminID  string
		email    string
		roles    string
		secret   string
		validFor time.Duration
	)
	flag.StringVar(&adminID, "issue-token", "", "user id to issue a development access token for")
	flag.StringVar(&email, "email", "", "email claim for the issued token")
	flag.StringVar(&roles, "roles", "admin", "comma separated roles for the issued token")
	flag.StringVar(&secret, "secret", "", "sign with this JWT_SECRET instead of a freshly generated one")
	flag.DurationVar(&validFor, "valid-for", 24*time.Hour, "lifetime of the issued token")
	flag.Parse()

	fmt.Println("===========================================")
	fmt.Println("JWT Secret Generator for Flyx")
	fmt.Println("===========================================")
	fmt.Println()

	if secret == "" {
		generated, err := utils.GenerateJWTSecret()
		if err != nil {
			log.Fatalf("Failed to generate secret: %v", err)
		}
		secret = generated

		fmt.Println("✅ Secret generated successfully!")
		fmt.Println()
		fmt.Println("Add this to your .env file:")
		fmt.Println()
		fmt.Printf("JWT_SECRET=%s\n", secret)
		fmt.Println()
	}

	if adminID != "" {
		service := jwt.NewService(secret, validFor)
		token, err := service.GenerateAccessToken(adminID, email, splitRoles(roles))
		if err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}

		fmt.Printf("Access token for %s (valid %s):\n", adminID, validFor)
		fmt.Println()
		fmt.Println(token)
		fmt.Println()
	}

	fmt.Println("⚠️  IMPORTANT: Keep these secrets safe and never commit them to version control!")
	fmt.Println("===========================================")
}

func splitRoles(raw string) []string {
	var roles []string
	for _, role := range strings.Split(raw, ",") {
		if role = strings.TrimSpace(role); role != "" {
			roles = append(roles, role)
		}
	}
	return roles
}
