// seed inserts a handful of unclaimed companies into the local dev database.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/openlistings/claimsvc/internal/infrastructure/postgres"
)

type companySpec struct {
	id   string
	name string
}

var companies = []companySpec{
	{"riverside-bakery", "Riverside Bakery"},
	{"hilltop-plumbing", "Hilltop Plumbing Co."},
	{"cedar-lane-books", "Cedar Lane Books"},
	{"bluewater-cafe", "Bluewater Café"},
	{"north-end-garage", "North End Garage"},
	{"maple-dental", "Maple Street Dental"},
}

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set — run: direnv allow")
	}

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	// Insert companies, skip any that already exist (idempotent re-runs)
	var inserted, skipped int
	for _, spec := range companies {
		tag, err := pool.Exec(ctx, `
			INSERT INTO companies (id, name)
			VALUES ($1, $2)
			ON CONFLICT (id) DO NOTHING`,
			spec.id, spec.name,
		)
		if err != nil {
			log.Fatalf("insert company %s: %v", spec.id, err)
		}
		if tag.RowsAffected() == 0 {
			skipped++
		} else {
			inserted++
		}
	}

	fmt.Println("Seed complete")
	fmt.Println()
	fmt.Printf("  Companies created: %d  (skipped %d already existing)\n", inserted, skipped)
	fmt.Println()
	fmt.Println("How to test the claim flow:")
	fmt.Println()
	fmt.Println("  Step 1 — request a code (it shows up in the server log with ENV=local):")
	fmt.Println()
	fmt.Println("    curl -s -X POST http://localhost:8080/listings/riverside-bakery/claim/request \\")
	fmt.Println("      -H 'Content-Type: application/json' \\")
	fmt.Println("      -d '{\"email\":\"owner@riverside-bakery.test\"}'")
	fmt.Println()
	fmt.Println("  Step 2 — verify it:")
	fmt.Println()
	fmt.Println("    curl -s -X POST http://localhost:8080/listings/riverside-bakery/claim/verify \\")
	fmt.Println("      -H 'Content-Type: application/json' \\")
	fmt.Println("      -d '{\"email\":\"owner@riverside-bakery.test\",\"code\":\"CODE_FROM_LOG\"}'")
	fmt.Println("    # → {\"success\":true,\"step\":\"done\",\"token\":\"eyJ...\"}")
	fmt.Println()
	fmt.Println("  Step 3 — use the session token:")
	fmt.Println()
	fmt.Println("    curl -s http://localhost:8080/accounts/me -H \"Authorization: Bearer $TOKEN\"")
}
