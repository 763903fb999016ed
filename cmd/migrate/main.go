// Command migrate runs schema operations for the backend.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"unigram/internal/config"
	"unigram/internal/database"

	"gorm.io/driver/postgres"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate/main.go [-yes] <up|status|down>")
}

func run() error {
	confirm := flag.Bool("yes", false, "Confirm destructive operations")
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.Open(postgres.Open(database.DSN(cfg)), cfg, false)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	models := database.PersistentModels()
	cmd := strings.ToLower(strings.TrimSpace(flag.Arg(0)))
	switch cmd {
	case "up", "auto":
		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Println("schema migrated")
	case "status":
		pending := 0
		for _, m := range models {
			stmt := db.Model(m).Statement
			if err := stmt.Parse(m); err != nil {
				return fmt.Errorf("parse model: %w", err)
			}
			present := db.Migrator().HasTable(m)
			if !present {
				pending++
			}
			log.Printf("table=%s present=%t", stmt.Schema.Table, present)
		}
		log.Printf("models=%d missing=%d", len(models), pending)
	case "down":
		if !*confirm {
			return fmt.Errorf("down drops every table; rerun with -yes to confirm")
		}
		for i := len(models) - 1; i >= 0; i-- {
			if err := db.Migrator().DropTable(models[i]); err != nil {
				return fmt.Errorf("drop table: %w", err)
			}
		}
		log.Printf("dropped %d tables", len(models))
	default:
		return usage()
	}

	return nil
}
