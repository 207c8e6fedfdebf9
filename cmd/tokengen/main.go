package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/simple-admin-auth/pkg/token"
)

func main() {
	secret := flag.String("secret", os.Getenv("ADMIN_JWT_SECRET"), "Secret key for signing the token (defaults to ADMIN_JWT_SECRET)")
	userID := flag.String("user", "", "Admin user ID (UUID) to put in the id claim")
	expiry := flag.Duration("expiry", token.DefaultExpiresIn, "Token expiry duration (e.g., 30m, 1h, 720h)")
	outputFormat := flag.String("format", "compact", "Output format: compact, full, or debug")
	random := flag.Bool("random", false, "Print a random 40 character hex token, e.g. for ADMIN_JWT_SECRET, and exit")
	flag.Parse()

	if *random {
		fmt.Println(token.NewService("").CreateToken())
		return
	}

	tokens := token.NewService(*secret, token.WithExpiresIn(*expiry))
	if err := tokens.CheckSecretIsDefined(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	id, err := uuid.Parse(*userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: -user must be a UUID: %v\n", err)
		os.Exit(1)
	}

	tokenStr, err := tokens.CreateJwtToken(id)
	if err != nil {
		slog.Error("Failed to generate token", "err", err)
		fmt.Fprintf(os.Stderr, "Error: Failed to generate token: %v\n", err)
		os.Exit(1)
	}

	switch *outputFormat {
	case "compact":
		fmt.Println(tokenStr)
	case "full":
		fmt.Printf("Token: %s\nExpires: %s\n", tokenStr, time.Now().Add(tokens.ExpiresIn()).Format(time.RFC3339))
	case "debug":
		decoded := tokens.DecodeJwtToken(tokenStr)
		if !decoded.Valid {
			fmt.Fprintf(os.Stderr, "Error: generated token does not verify\n")
			os.Exit(1)
		}
		fmt.Printf("=== Token Information ===\n")
		fmt.Printf("Token: %s\n\n", tokenStr)
		fmt.Printf("=== Token Payload ===\n")
		payloadJSON, _ := json.MarshalIndent(decoded.Payload, "", "  ")
		fmt.Printf("%s\n\n", payloadJSON)
		fmt.Printf("Expires: %s\n", decoded.Payload.ExpiresAt.Format(time.RFC3339))
	default:
		fmt.Fprintf(os.Stderr, "Error: Unknown output format: %s\n", *outputFormat)
		os.Exit(1)
	}
}
