// tokengen mints signed access tokens for local development and
// testing. Production tokens come from the identity provider.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/colabhq/workspace-core/internal/auth"
	"github.com/colabhq/workspace-core/internal/rbac"
)

func main() {
	userFlag := flag.String("user", "", "user id (uuid); random when empty")
	nameFlag := flag.String("name", "Dev User", "display name claim")
	roleFlag := flag.String("role", rbac.RoleEditor, "role claim (owner/admin/editor/viewer/guest)")
	ttlFlag := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "change-me-in-production"
	}

	userID := uuid.New()
	if *userFlag != "" {
		parsed, err := uuid.Parse(*userFlag)
		if err != nil {
			fmt.Fprintln(os.Stderr, "invalid -user:", err)
			os.Exit(1)
		}
		userID = parsed
	}

	if _, ok := rbac.RolePermissions[*roleFlag]; !ok {
		fmt.Fprintln(os.Stderr, "unknown role:", *roleFlag)
		os.Exit(1)
	}

	token, err := auth.GenerateToken(secret, userID, *nameFlag, *roleFlag, *ttlFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to sign token:", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
