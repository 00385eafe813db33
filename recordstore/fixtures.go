// ABOUTME: Embedded demo data and seeding into any Store
// ABOUTME: Remaps fixture ids to store-assigned ids so references stay intact
package recordstore

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"path"
)

//go:embed fixtures/*.json
var fixturesFS embed.FS

var fixtureFiles = map[string]string{
	TableStages:     "stages.json",
	TableContacts:   "contacts.json",
	TableDeals:      "deals.json",
	TableActivities: "activities.json",
}

// LoadFixtures decodes the embedded demo records for one table.
func LoadFixtures(table string) ([]Record, error) {
	name, ok := fixtureFiles[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	data, err := fixturesFS.ReadFile(path.Join("fixtures", name))
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures for %s: %w", table, err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode fixtures for %s: %w", table, err)
	}
	return records, nil
}

// SeedReport counts records created per table.
type SeedReport map[string]int

// Seed loads the demo data into s. Tables that already hold records are
// left alone, and references into them are dropped rather than guessed.
func Seed(ctx context.Context, s Store) (SeedReport, error) {
	return transfer(ctx, s, LoadFixtures, false)
}
