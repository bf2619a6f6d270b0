// Command seed-registry loads voter roll reference data into the registry
// table from a JSON export provided by the county clerk's office. The
// application itself never writes to the registry; this command stands in for
// the external administrative process that maintains it.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"gorm.io/gorm/clause"

	"github.com/millbrook-county/civic-portal/backend/internal/database"
	"github.com/millbrook-county/civic-portal/backend/internal/models"
)

func main() {
	path := flag.String("file", "voter_registry.json", "path to the voter roll JSON export")
	flag.Parse()

	data, err := os.ReadFile(*path)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *path, err)
	}

	var export struct {
		Voters []models.VoterRegistryEntry `json:"voters"`
	}
	if err := json.Unmarshal(data, &export); err != nil {
		log.Fatalf("Failed to parse %s: %v", *path, err)
	}

	for i, voter := range export.Voters {
		if voter.VoterID == "" || voter.LastName == "" || voter.DateOfBirth == "" {
			log.Fatalf("Entry %d is missing voter_id, last_name, or date_of_birth", i)
		}
	}

	db := database.New().GetDB()

	// Re-running the seed refreshes existing entries in place.
	for _, voter := range export.Voters {
		voter.ID = 0
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "voter_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_name", "date_of_birth", "street_address", "district"}),
		}).Create(&voter).Error
		if err != nil {
			log.Fatalf("Failed to load voter %s: %v", voter.VoterID, err)
		}
	}

	log.Printf("✅ Loaded %d voter registry entries", len(export.Voters))
}
