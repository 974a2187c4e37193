package counter

import (
	"context"

	"github.com/mhsong/shopfront/internal/pkg/cache"
)

const reconcileOutcomesKey = "payment:counters:outcomes"

// AddReconcileOutcome increments the counter for a settled reconciliation
// outcome in Redis
func AddReconcileOutcome(outcome string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, reconcileOutcomesKey, outcome, 1).Err()
}

// GetReconcileOutcomes returns the accumulated per-outcome counts
func GetReconcileOutcomes() (map[string]string, error) {
	ctx := context.Background()
	return cache.GetClient().HGetAll(ctx, reconcileOutcomesKey).Result()
}
