// Command token prints a bearer token signed with JWT_SECRET, for calling
// the admin and reservation endpoints in development.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/iliyamo/event-seat-engine/internal/config"
	"github.com/iliyamo/event-seat-engine/internal/utils"
)

func main() {
	subject := pflag.StringP("subject", "s", "operator", "token subject (user id)")
	role := pflag.StringP("role", "r", "ADMIN", "role claim")
	ttl := pflag.DurationP("ttl", "t", time.Hour, "token lifetime")
	pflag.Parse()

	_ = godotenv.Load()
	v := config.New()
	secret := v.GetString("jwt_secret")
	tok, err := utils.NewAccessToken(secret, *subject, *role, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "token:", err)
		os.Exit(1)
	}
	fmt.Println(tok.Token)
}
