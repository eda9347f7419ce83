package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"leafscan/internal/models"
	"leafscan/internal/repository/sqlite"
)

// exportedScan is one entry of a legacy history export: the mobile app's
// backup format, an array of scans with their ranked predictions.
type exportedScan struct {
	CapturedAt     string              `json:"capturedAt"`
	ImageRef       string              `json:"imageRef"`
	TopPredictions []models.Prediction `json:"topPredictions"`
}

func main() {
	exportPath := flag.String("export", "scans_export.json", "Legacy scan-history export (JSON)")
	dbPath := flag.String("db", "data/scans.db", "Database path")
	flag.Parse()

	fmt.Printf("Migrating scans from %s to database %s\n", *exportPath, *dbPath)

	data, err := os.ReadFile(*exportPath)
	if err != nil {
		log.Fatalf("Failed to read export file: %v", err)
	}

	var exported []exportedScan
	if err := json.Unmarshal(data, &exported); err != nil {
		log.Fatalf("Failed to parse export file: %v", err)
	}

	if len(exported) == 0 {
		fmt.Println("No scans found to migrate")
		return
	}

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	repo := sqlite.NewScanRepository(db)

	inserted := 0
	skipped := 0
	for _, scan := range exported {
		if len(scan.TopPredictions) == 0 {
			log.Printf("⚠️  Skipping %s: no predictions", scan.ImageRef)
			skipped++
			continue
		}

		capturedAt, err := time.Parse(time.RFC3339, scan.CapturedAt)
		if err != nil {
			log.Printf("⚠️  Skipping %s: bad timestamp %q", scan.ImageRef, scan.CapturedAt)
			skipped++
			continue
		}

		crop := scan.TopPredictions[0].Crop()
		if _, err := repo.Append(scan.TopPredictions, scan.ImageRef, crop, capturedAt); err != nil {
			log.Fatalf("Failed to insert scan for %s: %v", scan.ImageRef, err)
		}
		inserted++
	}

	fmt.Printf("✅ Successfully migrated %d scans\n", inserted)
	if skipped > 0 {
		fmt.Printf("⚠️  Skipped %d entries (missing predictions or bad timestamps)\n", skipped)
	}

	// Show stats
	stats, err := repo.ComputeStatistics()
	if err == nil {
		fmt.Printf("\n📊 History Statistics:\n")
		fmt.Printf("   Total scans: %d\n", stats.Total)
		fmt.Printf("   Healthy: %d, Diseased: %d\n", stats.Healthy, stats.Diseased)
		fmt.Printf("   Per crop:\n")
		for crop, count := range stats.ByCrop {
			fmt.Printf("      - %s: %d scans\n", crop, count)
		}
	}
}
