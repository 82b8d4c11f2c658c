// Command devtoken prints a signed access token for local testing against
// a running API. It reads JWT_SECRET from the environment or .env.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/auth"
	"github.com/ovaphlow/pitchfork/service-engine-oil/pkg/utilities"
)

func main() {
	var (
		sub         = flag.String("sub", "", "subject (user id); a random UUID when empty")
		username    = flag.String("username", "dev", "username claim")
		email       = flag.String("email", "dev@localhost", "email claim")
		requiredDuo = flag.Bool("required-duo", false, "set the requiredDuo claim")
		duoVerified = flag.Bool("duo-verified", false, "set the duoVerified claim")
		ttl         = flag.Duration("ttl", auth.AccessTokenTTL, "token lifetime")
	)
	flag.Parse()

	_ = godotenv.Load()
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set")
		os.Exit(1)
	}
	if *sub == "" {
		*sub = utilities.NewUUID()
	}

	tok, err := auth.NewVerifier(secret).Issue(auth.Principal{
		ID:                *sub,
		Username:          *username,
		Email:             *email,
		Requires2FA:       *requiredDuo,
		TwoFactorVerified: *duoVerified,
	}, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "issue token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(tok)
	fmt.Fprintf(os.Stderr, "expires %s\n", time.Now().Add(*ttl).UTC().Format(time.RFC3339))
}
