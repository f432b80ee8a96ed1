package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"docvault-be/internal/model"
	"docvault-be/pkg/database"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

// Seeds a demo tenant layout: two organizations, one party belonging to
// both, one party belonging to one, and a spread of documents over the
// last three billing periods.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	ok := color.New(color.FgGreen).SprintFunc()
	skip := color.New(color.FgYellow).SprintFunc()

	orgs := []model.Organization{
		{Name: "Comercial Andina SpA", TaxId: "76.543.210-1", Active: true},
		{Name: "Servicios del Sur Ltda", TaxId: "77.111.222-3", Active: true},
	}
	for i := range orgs {
		if seeded := firstOrCreate(db, &orgs[i], "name = ?", orgs[i].Name); seeded {
			fmt.Printf("%s organization %s\n", ok("seeded"), orgs[i].Name)
		} else {
			fmt.Printf("%s organization %s\n", skip("exists"), orgs[i].Name)
		}
	}

	parties := []model.Party{
		{DisplayName: "María Contadora", ExternalRef: "wa:56911111111", Role: "user", Active: true},
		{DisplayName: "Pedro Analista", ExternalRef: "wa:56922222222", Role: "user", Active: true},
		{DisplayName: "Admin Desk", ExternalRef: "wa:56900000000", Role: "admin", Active: true},
	}
	for i := range parties {
		if seeded := firstOrCreate(db, &parties[i], "external_ref = ?", parties[i].ExternalRef); seeded {
			fmt.Printf("%s party %s\n", ok("seeded"), parties[i].DisplayName)
		} else {
			fmt.Printf("%s party %s\n", skip("exists"), parties[i].DisplayName)
		}
	}

	members := []model.OrganizationMember{
		{PartyId: parties[0].Id, OrganizationId: orgs[0].Id, Role: "member"},
		{PartyId: parties[0].Id, OrganizationId: orgs[1].Id, Role: "member"},
		{PartyId: parties[1].Id, OrganizationId: orgs[1].Id, Role: "member"},
	}
	for i := range members {
		if seeded := firstOrCreate(db, &members[i], "party_id = ? AND organization_id = ?", members[i].PartyId, members[i].OrganizationId); seeded {
			fmt.Printf("%s membership %s -> %s\n", ok("seeded"), members[i].PartyId, members[i].OrganizationId)
		} else {
			fmt.Printf("%s membership %s -> %s\n", skip("exists"), members[i].PartyId, members[i].OrganizationId)
		}
	}

	now := time.Now()
	var docs []model.Document
	for monthsBack := 1; monthsBack <= 3; monthsBack++ {
		period := now.AddDate(0, -monthsBack, 0).Format("2006-01")
		for _, org := range orgs {
			docs = append(docs,
				model.Document{
					OrganizationId: org.Id,
					Category:       "financiero",
					Subtype:        "reporte_mensual",
					Period:         period,
					DisplayName:    fmt.Sprintf("Reporte mensual %s.pdf", period),
					StorageKey:     fmt.Sprintf("%s/financiero/reporte_mensual/%s.pdf", org.Id, period),
					UploadedBy:     parties[2].Id,
					Active:         true,
				},
				model.Document{
					OrganizationId: org.Id,
					Category:       "financiero",
					Subtype:        "f29",
					Period:         period,
					DisplayName:    fmt.Sprintf("F29 %s.pdf", period),
					StorageKey:     fmt.Sprintf("%s/financiero/f29/%s.pdf", org.Id, period),
					UploadedBy:     parties[2].Id,
					Active:         true,
				},
			)
		}
	}
	docs = append(docs, model.Document{
		OrganizationId: orgs[0].Id,
		Category:       "legal",
		Subtype:        "estatutos_empresa",
		Period:         now.AddDate(0, -1, 0).Format("2006-01"),
		DisplayName:    "Estatutos vigentes.pdf",
		StorageKey:     fmt.Sprintf("%s/legal/estatutos_empresa/vigentes.pdf", orgs[0].Id),
		UploadedBy:     parties[2].Id,
		Active:         true,
	})

	for i := range docs {
		if seeded := firstOrCreate(db, &docs[i],
			"organization_id = ? AND category = ? AND subtype = ? AND period = ?",
			docs[i].OrganizationId, docs[i].Category, docs[i].Subtype, docs[i].Period,
		); seeded {
			fmt.Printf("%s document %s\n", ok("seeded"), docs[i].DisplayName)
		} else {
			fmt.Printf("%s document %s\n", skip("exists"), docs[i].DisplayName)
		}
	}

	color.Green("Seed completed")
}

// firstOrCreate reports whether the row had to be created.
func firstOrCreate[T any](db *gorm.DB, row *T, query string, args ...interface{}) bool {
	res := db.Where(query, args...).First(row)
	if res.Error == nil {
		return false
	}
	if err := db.Create(row).Error; err != nil {
		log.Fatalf("Error: Failed to seed row: %v", err)
	}
	return true
}
