// Command seed-cargo fills a database with fake cargo items and a week of
// activity so the dashboard has something to show.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/loganlanou/stationcargo/internal/api"
	"github.com/loganlanou/stationcargo/internal/station"
	"github.com/loganlanou/stationcargo/storage"
	"github.com/loganlanou/stationcargo/storage/db"
)

var catalog = map[string][]string{
	"Food":         {"Protein Bar Box", "Rehydratable Pasta", "Coffee Pouch Pack", "Tortilla Stack", "Fruit Cup Tray"},
	"Medical":      {"Medical Kit", "Bandage Roll", "Pain Relief Tablets", "Suture Kit", "Blood Pressure Cuff"},
	"Equipment":    {"Torque Wrench", "Cable Harness", "Spare Fan Assembly", "Camera Battery", "Laptop Charger"},
	"Science":      {"Sample Freezer Bag", "Microscope Slide Set", "Plant Growth Chamber", "Petri Dish Box"},
	"Hygiene":      {"Wet Wipes Pack", "Toothpaste Tube", "Towel Set", "Shampoo Pouch"},
	"Life Support": {"Water Filter", "CO2 Scrubber Cartridge", "Oxygen Candle", "Air Filter Insert"},
}

var crew = []string{"crew-davis", "crew-ortiz", "crew-tanaka", "crew-novak"}

func main() {
	dbPath := flag.String("db", envOr("DB_PATH", "./db/stationcargo.db"), "database path")
	count := flag.Int("items", 150, "number of cargo items")
	seed := flag.Uint64("seed", 0, "random seed (0 picks one)")
	flag.Parse()

	if err := run(context.Background(), *dbPath, *count, *seed); err != nil {
		slog.Error("seeding failed", "error", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func pick[T any](f *gofakeit.Faker, items []T) T {
	return items[f.IntRange(0, len(items)-1)]
}

func run(ctx context.Context, dbPath string, count int, seed uint64) error {
	faker := gofakeit.New(seed)

	layout, err := station.Default()
	if err != nil {
		return err
	}

	store, err := storage.New(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	day, err := store.Queries.GetStationDay(ctx)
	if err != nil {
		return fmt.Errorf("failed to read station day: %w", err)
	}
	today, err := time.Parse(time.DateOnly, day)
	if err != nil {
		return fmt.Errorf("invalid station day %q: %w", day, err)
	}

	tx, err := store.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	q := store.Queries.WithTx(tx)

	categories := make([]string, 0, len(catalog))
	for name := range catalog {
		categories = append(categories, name)
	}
	sort.Strings(categories)

	for i := range count {
		category := pick(faker, categories)
		module := pick(faker, layout.Modules)
		section := pick(faker, module.Sections)

		item := db.UpsertCargoItemParams{
			ID:       fmt.Sprintf("ISS-%05d", i+1),
			Name:     pick(faker, catalog[category]),
			Category: category,
			Module:   module.Name,
			Section:  section,
			Location: fmt.Sprintf("%s-%d", faker.RandomString([]string{"Shelf", "Drawer", "Cabinet", "Rack"}), faker.IntRange(1, 9)),
			MassKg:   float64(faker.IntRange(10, 2500)) / 100,
			Priority: int64(faker.IntRange(1, 100)),
		}
		switch category {
		case "Food", "Medical":
			expiry := today.AddDate(0, 0, faker.IntRange(-5, 120))
			item.ExpiryDate = sql.NullString{String: expiry.Format(time.DateOnly), Valid: true}
		case "Life Support", "Hygiene":
			item.UsageLimit = sql.NullInt64{Int64: int64(faker.IntRange(5, 50)), Valid: true}
		}
		if err := q.UpsertCargoItem(ctx, item); err != nil {
			return fmt.Errorf("failed to insert %s: %w", item.ID, err)
		}

		action := api.ActionPlacement
		if faker.Bool() {
			action = api.ActionRetrieval
		}
		at := time.Now().Add(-time.Duration(faker.IntRange(0, 7*24*60)) * time.Minute)
		if err := q.CreateActivityLog(ctx, db.CreateActivityLogParams{
			UserID:     pick(faker, crew),
			ActionType: action,
			ItemID:     item.ID,
			ItemName:   item.Name,
			Location:   module.Name + "/" + section,
			Details:    fmt.Sprintf("%s by %s %s", action, faker.FirstName(), faker.LastName()),
			CreatedAt:  db.FormatTime(at),
		}); err != nil {
			return fmt.Errorf("failed to log activity for %s: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed data: %w", err)
	}

	slog.Info("seeded cargo", "database", dbPath, "items", count, "station_day", day)
	return nil
}
