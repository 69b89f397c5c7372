package main

import (
	"context"
	"time"

	"github.com/soaringjerry/Empatia/internal/api"
	"github.com/soaringjerry/Empatia/internal/services"
)

const demoTarget = 20

// demo totals: 6 oblivious, 8 cautious, 6 active
var demoTotals = []int{
	12, 14, 11, 15, 13, 16,
	18, 20, 19, 22, 17, 21, 23, 18,
	25, 28, 26, 24, 29, 27,
}

// demoRecords spreads the demo totals over the 30 days before now.
func demoRecords(now time.Time) []services.ResponseRecord {
	out := make([]services.ResponseRecord, 0, len(demoTotals))
	for i, total := range demoTotals {
		daysAgo := (i * 7) % 31
		at := now.UTC().AddDate(0, 0, -daysAgo).Add(-time.Duration(i) * 17 * time.Minute)
		out = append(out, services.ResponseRecord{
			CreatedAt: at,
			Total:     total,
			Profile:   services.ProfileFor(total),
		})
	}
	return out
}

// populateDemo inserts the demo set unless the store already holds at least
// demoTarget records. It returns the number of records inserted.
func populateDemo(ctx context.Context, store api.Store, now time.Time) (int, error) {
	existing, err := store.ListResponses(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) >= demoTarget {
		return 0, nil
	}
	return store.ImportRecords(ctx, demoRecords(now))
}
