// ABOUTME: Copies records between stores while keeping references intact
// ABOUTME: Shared by demo seeding and backend-to-backend migration
package recordstore

import (
	"context"
	"fmt"
)

// reference fields rewritten during a transfer, keyed by table.
var tableRefs = map[string]map[string]string{
	TableDeals:      {"contact_id_c": TableContacts},
	TableActivities: {"contact_id_c": TableContacts, "deal_id_c": TableDeals},
}

// Copy writes every record of src into dst. The destination assigns new
// ids and deal and activity references are remapped to them. Tables that
// already hold records in dst are skipped unless force is set, in which
// case the copied records are appended.
func Copy(ctx context.Context, src, dst Store, force bool) (SeedReport, error) {
	load := func(table string) ([]Record, error) {
		records, err := src.FetchRecords(ctx, table, Query{}.Sorted(FieldID, SortAsc))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", table, err)
		}
		return records, nil
	}
	return transfer(ctx, dst, load, force)
}

func transfer(ctx context.Context, dst Store, load func(table string) ([]Record, error), force bool) (SeedReport, error) {
	report := SeedReport{}
	idMaps := map[string]map[int64]int64{}

	for _, table := range Tables() {
		if !force {
			existing, err := dst.FetchRecords(ctx, table, Query{Fields: []string{FieldID}}.Limit(1, 0))
			if err != nil {
				return report, fmt.Errorf("failed to inspect %s: %w", table, err)
			}
			if len(existing) > 0 {
				continue
			}
		}

		source, err := load(table)
		if err != nil {
			return report, err
		}
		if len(source) == 0 {
			report[table] = 0
			continue
		}

		oldIDs := make([]int64, len(source))
		payload := make([]Record, len(source))
		for i, rec := range source {
			oldIDs[i] = rec.ID()
			r := rec.Clone()
			delete(r, FieldID)
			for field, target := range tableRefs[table] {
				old := r.Int64(field)
				if old == 0 {
					continue
				}
				if newID, ok := idMaps[target][old]; ok {
					r[field] = newID
				} else {
					delete(r, field)
				}
			}
			payload[i] = r
		}

		result, err := dst.CreateRecords(ctx, table, payload)
		if err != nil {
			return report, fmt.Errorf("failed to write %s: %w", table, err)
		}
		if err := result.Err(); err != nil {
			return report, fmt.Errorf("failed to write %s: %w", table, err)
		}

		idMaps[table] = make(map[int64]int64, len(oldIDs))
		for i, o := range result.Outcomes {
			idMaps[table][oldIDs[i]] = o.Record.ID()
		}
		report[table] = len(result.Outcomes)
	}

	return report, nil
}
