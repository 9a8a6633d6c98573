package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"jordanella.com/royale-coach/internal/database"
)

func main() {
	importDir := flag.String("dir", "", "Directory containing .jsonl dataset files to index")
	dbPath := flag.String("db", "dataset/samples.db", "Path to the sample index database")
	showStats := flag.Bool("stats", false, "Print indexed matches and plays per card")
	limit := flag.Int("limit", 20, "Number of matches listed with -stats")
	compact := flag.Bool("compact", false, "Checkpoint and vacuum the database")
	flag.Parse()

	if *importDir == "" && !*showStats && !*compact {
		fmt.Println("Usage:")
		fmt.Println("  Import: dataset-index -dir <directory> [-db <database>]")
		fmt.Println("  Stats:  dataset-index -stats [-db <database>] [-limit <n>]")
		fmt.Println("  Compact: dataset-index -compact [-db <database>]")
		os.Exit(1)
	}

	db, err := database.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if pending, err := db.Pending(); err == nil {
		for _, m := range pending {
			fmt.Printf("Migrating schema to v%d (%s)\n", m.Version, m.Description)
		}
	}
	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	store := database.NewSampleStore(db)

	if *importDir != "" {
		performImport(store, *importDir)
	}

	if *compact {
		if err := db.Compact(); err != nil {
			log.Fatalf("Failed to compact database: %v", err)
		}
		fmt.Println("Database compacted")
	}

	if *showStats {
		printStats(db, store, *limit)
	}
}

func performImport(store *database.SampleStore, directory string) {
	fmt.Printf("=== Indexing datasets from %s ===\n\n", directory)

	result, err := store.ImportDirectory(directory)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	fmt.Printf("Import Summary:\n")
	fmt.Printf("  Total files:     %d\n", result.TotalFiles)
	fmt.Printf("  Imported:        %d (%d samples)\n", result.Imported, result.Samples)
	fmt.Printf("  Skipped:         %d (already indexed)\n", result.Skipped)
	fmt.Printf("  Failed:          %d\n", result.Failed)

	if len(result.Errors) > 0 {
		fmt.Println("\nErrors:")
		for _, msg := range result.Errors {
			fmt.Printf("  - %s\n", msg)
		}
	}
	fmt.Println()
}

func printStats(db *database.DB, store *database.SampleStore, limit int) {
	stats, err := db.Stats()
	if err != nil {
		log.Fatalf("Failed to read database stats: %v", err)
	}

	matches, err := store.ListMatches(limit)
	if err != nil {
		log.Fatalf("Failed to list matches: %v", err)
	}

	fmt.Printf("=== %d samples in %d matches (%d open), schema v%d, %d KiB ===\n\n",
		stats.Samples, stats.Matches, stats.OpenMatches, stats.Version, stats.FileBytes/1024)
	fmt.Printf("%-34s %-20s %8s\n", "MATCH", "STARTED", "SAMPLES")
	for _, m := range matches {
		status := ""
		if m.EndedAt == nil {
			status = " (open)"
		}
		fmt.Printf("%-34s %-20s %8d%s\n", m.ID, m.StartedAt.Local().Format("2006-01-02 15:04:05"), m.SampleCount, status)
	}

	counts, err := store.CountByCard()
	if err != nil {
		log.Fatalf("Failed to count cards: %v", err)
	}

	cards := make([]string, 0, len(counts))
	for card := range counts {
		cards = append(cards, card)
	}
	sort.Slice(cards, func(i, j int) bool {
		if counts[cards[i]] != counts[cards[j]] {
			return counts[cards[i]] > counts[cards[j]]
		}
		return cards[i] < cards[j]
	})

	fmt.Printf("\n%-20s %8s\n", "CARD", "PLAYS")
	for _, card := range cards {
		fmt.Printf("%-20s %8d\n", card, counts[card])
	}
}
