package main

// Helper: go run ./cmd/server -remove-duplicates
// Offline maintenance: merges products/clients sharing a name and
// duplicate sale lines, then exits.

import (
	"flag"
	"log"

	"github.com/diewo77/sales-app/internal/db"
	"github.com/diewo77/sales-app/internal/services"
)

var dedupeFlag = flag.Bool("remove-duplicates", false, "Merge duplicate products/clients/sale lines and exit")

func runRemoveDuplicates() {
	conn, err := db.ConnectAndMigrate()
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	res, err := services.RemoveDuplicates(conn)
	if err != nil {
		log.Fatalf("remove duplicates: %v", err)
	}
	log.Printf("Dedupe done: %d products, %d clients, %d sale lines removed",
		res.ProductsRemoved, res.ClientsRemoved, res.LinesRemoved)
}
