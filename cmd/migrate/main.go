package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/kdimtricp/leafscan/internal/config"
	"github.com/kdimtricp/leafscan/internal/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	var (
		migrationsPath = flag.String("migrations", cfg.MigrationsPath, "Path to migrations directory")
		status         = flag.Bool("status", false, "Show migration status only")
	)
	flag.Parse()

	if cfg.DB.Type != database.TypePostgres {
		fmt.Printf("DB_TYPE=%s builds its schema on startup; nothing to migrate.\n", cfg.DB.Type)
		return
	}

	db, err := database.NewDB(database.Config(cfg.DB))
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	ctx := context.Background()
	migrator := database.NewMigrator(db)

	if *status {
		if err := migrator.Initialize(ctx); err != nil {
			log.Fatal("Failed to initialize migrator:", err)
		}

		applied, err := migrator.AppliedMigrations(ctx)
		if err != nil {
			log.Fatal("Failed to get applied migrations:", err)
		}

		migrations, err := database.LoadMigrations(*migrationsPath)
		if err != nil {
			log.Fatal("Failed to load migrations:", err)
		}

		fmt.Println("Migration Status:")
		fmt.Println("=================")
		for _, m := range migrations {
			state := "pending"
			if applied[m.Version] {
				state = "applied"
			}
			fmt.Printf("%s - %s [%s]\n", m.Version, m.Name, state)
		}
		return
	}

	fmt.Printf("Running migrations from %s...\n", *migrationsPath)
	n, err := migrator.Run(ctx, *migrationsPath)
	if err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	fmt.Printf("Applied %d migration(s).\n", n)
}
