// Command seed_users creates or updates dashboard accounts. Admin accounts
// get a bcrypt-hashed password; participant accounts log in by username and
// are bound to their organization's data by name.
//
// Usage:
//
//	seed_users -role admin -username ops -name "Operations" -password secret
//	seed_users -role participant -username kunta -name "Kunta K." -org "Kunta Kinteh Island Museum"
package main

import (
	"context"
	"flag"
	"log"

	"golang.org/x/crypto/bcrypt"

	"github.com/ndiaye/readiness-dashboard/internal/db"
)

func main() {
	username := flag.String("username", "", "account username (required)")
	fullName := flag.String("name", "", "display name")
	role := flag.String("role", "participant", "admin or participant")
	organization := flag.String("org", "", "organization name (participants)")
	password := flag.String("password", "", "password (admins)")
	flag.Parse()

	if *username == "" {
		log.Fatal("-username is required")
	}
	if *role != "admin" && *role != "participant" {
		log.Fatalf("invalid role %q", *role)
	}
	if *role == "admin" && *password == "" {
		log.Fatal("admin accounts require -password")
	}
	if *role == "participant" && *organization == "" {
		log.Fatal("participant accounts require -org")
	}

	hash := ""
	if *password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("hashing failed: %v", err)
		}
		hash = string(hashed)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	store := db.NewStore(pool)
	if err := store.UpsertUser(ctx, *username, *fullName, *role, *organization, hash); err != nil {
		log.Fatal(err)
	}
	log.Printf("Seeded %s account %q", *role, *username)
}
