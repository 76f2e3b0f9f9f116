// Command issue-token mints an operator access token for the admin panel.
//
// Usage:
//
//	issue-token --operator=dana@wdi.co.il [--role=operator|admin]
//
// Requires AUTH_JWT_SECRET. The token is printed to stdout.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/auth"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/config"
)

func main() {
	operator := flag.String("operator", "", "operator identity recorded as performedBy")
	role := flag.String("role", auth.RoleOperator, "operator role")
	flag.Parse()

	if *operator == "" {
		fmt.Fprintln(os.Stderr, "Usage: issue-token --operator=dana@wdi.co.il [--role=operator|admin]")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	jwt := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)
	token, err := jwt.GenerateAccessToken(*operator, *role)
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}

	fmt.Println(token)
}
