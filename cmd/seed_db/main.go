package main

import (
	"flag"
	"log"

	_ "github.com/joho/godotenv/autoload"
	"gorm.io/gorm"

	"github.com/albertaspsc/mruhacks2025-api/functions/gateway/transport"
	"github.com/albertaspsc/mruhacks2025-api/functions/gateway/types"
)

var dryRun = flag.Bool("dry-run", false, "print what would be seeded without writing")

// Lookup rows the registration form depends on. Seeding is idempotent: rows
// are matched on label, existing ids are left alone.
var seedData = map[string][]string{
	"genders": {
		"Woman", "Man", "Non-binary", "Prefer to self-describe", "Prefer not to say",
	},
	"universities": {
		"Mount Royal University", "University of Calgary", "SAIT",
		"University of Alberta", "University of Lethbridge", "Other",
	},
	"majors": {
		"Computer Science", "Computer Information Systems", "Data Science",
		"Software Engineering", "Mathematics", "Business", "Biology", "Other",
	},
	"interests": {
		"AI / ML", "Web Development", "Mobile Development", "Game Development",
		"Cybersecurity", "Data Science", "Hardware / IoT", "UI / UX Design",
	},
	"dietary_restrictions": {
		"Vegetarian", "Vegan", "Halal", "Kosher", "Gluten-free", "Dairy-free", "Nut allergy",
	},
	"marketing_types": {
		"Instagram", "LinkedIn", "Posters on campus", "Word of mouth",
		"Professor / class announcement", "Club newsletter", "Other",
	},
}

func main() {
	flag.Parse()

	if *dryRun {
		for table, labels := range seedData {
			log.Printf("would seed %s with %d rows", table, len(labels))
		}
		return
	}

	db := transport.GetDB()

	err := db.AutoMigrate(
		&types.Gender{},
		&types.University{},
		&types.Major{},
		&types.Interest{},
		&types.DietaryRestriction{},
		&types.MarketingType{},
		&types.User{},
		&types.Workshop{},
		&types.WorkshopRegistration{},
		&types.Admin{},
	)
	if err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	seedLookup(db, "genders", func(label string) interface{} { return &types.Gender{Label: label} })
	seedLookup(db, "universities", func(label string) interface{} { return &types.University{Label: label} })
	seedLookup(db, "majors", func(label string) interface{} { return &types.Major{Label: label} })
	seedLookup(db, "interests", func(label string) interface{} { return &types.Interest{Label: label} })
	seedLookup(db, "dietary_restrictions", func(label string) interface{} { return &types.DietaryRestriction{Label: label} })
	seedLookup(db, "marketing_types", func(label string) interface{} { return &types.MarketingType{Label: label} })

	log.Println("Seed complete.")
}

func seedLookup(db *gorm.DB, table string, row func(label string) interface{}) {
	created := 0
	for _, label := range seedData[table] {
		var count int64
		if err := db.Table(table).Where("label = ?", label).Count(&count).Error; err != nil {
			log.Fatalf("failed to check %s %q: %v", table, label, err)
		}
		if count > 0 {
			continue
		}
		if err := db.Create(row(label)).Error; err != nil {
			log.Fatalf("failed to seed %s %q: %v", table, label, err)
		}
		created++
	}
	log.Printf("seeded %s: %d new, %d existing", table, created, len(seedData[table])-created)
}
