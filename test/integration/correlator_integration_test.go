package integration

import (
	"context"
	"sync"
	"testing"

	"mero-kart/internal/correlator"
	"mero-kart/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelator_IssueAndConsume(t *testing.T) {
	db := SetupTestDB(t)
	ctx := context.Background()

	buyer := SeedUser(t, db.Pool, "sita", model.RoleCustomer)
	order := SeedOrder(t, db.Pool, buyer.ID)

	corr := correlator.NewPostgresCorrelator(db.Pool, zerolog.Nop())

	correlationID, err := corr.Issue(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, correlationID, 14)

	// The pending id is stamped on the order row.
	var stamped *string
	require.NoError(t, db.Pool.QueryRow(ctx,
		`SELECT correlation_id FROM orders WHERE id = $1`, order.ID).Scan(&stamped))
	require.NotNil(t, stamped)
	assert.Equal(t, correlationID, *stamped)

	gotOrderID, err := corr.Consume(ctx, correlationID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, gotOrderID)

	// Second consume of the same id fails: it is the duplicate-return signal.
	_, err = corr.Consume(ctx, correlationID)
	assert.ErrorIs(t, err, model.ErrCorrelationUnknown)
}

func TestCorrelator_IssueConflictWhilePending(t *testing.T) {
	db := SetupTestDB(t)
	ctx := context.Background()

	buyer := SeedUser(t, db.Pool, "sita", model.RoleCustomer)
	order := SeedOrder(t, db.Pool, buyer.ID)

	corr := correlator.NewPostgresCorrelator(db.Pool, zerolog.Nop())

	first, err := corr.Issue(ctx, order.ID)
	require.NoError(t, err)

	_, err = corr.Issue(ctx, order.ID)
	assert.ErrorIs(t, err, model.ErrCorrelationConflict)

	// After the pending correlation is consumed a fresh one can be issued.
	_, err = corr.Consume(ctx, first)
	require.NoError(t, err)

	second, err := corr.Issue(ctx, order.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestCorrelator_ConsumeUnknownID(t *testing.T) {
	db := SetupTestDB(t)

	corr := correlator.NewPostgresCorrelator(db.Pool, zerolog.Nop())

	_, err := corr.Consume(context.Background(), "NEVERISSUEDID0")

	assert.ErrorIs(t, err, model.ErrCorrelationUnknown)
}

func TestCorrelator_DistinctOrdersGetDistinctIDs(t *testing.T) {
	db := SetupTestDB(t)
	ctx := context.Background()

	buyer := SeedUser(t, db.Pool, "sita", model.RoleCustomer)
	corr := correlator.NewPostgresCorrelator(db.Pool, zerolog.Nop())

	orderA := SeedOrder(t, db.Pool, buyer.ID)
	orderB := SeedOrder(t, db.Pool, buyer.ID)

	idA, err := corr.Issue(ctx, orderA.ID)
	require.NoError(t, err)
	idB, err := corr.Issue(ctx, orderB.ID)
	require.NoError(t, err)
	require.NotEqual(t, idA, idB)

	gotA, err := corr.Consume(ctx, idA)
	require.NoError(t, err)
	gotB, err := corr.Consume(ctx, idB)
	require.NoError(t, err)

	assert.Equal(t, orderA.ID, gotA)
	assert.Equal(t, orderB.ID, gotB)
	assert.NotEqual(t, gotA, gotB)
}

func TestCorrelator_ConcurrentConsumeOnlyOneWins(t *testing.T) {
	db := SetupTestDB(t)
	ctx := context.Background()

	buyer := SeedUser(t, db.Pool, "sita", model.RoleCustomer)
	order := SeedOrder(t, db.Pool, buyer.ID)

	corr := correlator.NewPostgresCorrelator(db.Pool, zerolog.Nop())

	correlationID, err := corr.Issue(ctx, order.ID)
	require.NoError(t, err)

	const attempts = 10
	wins := make([]bool, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			gotID, err := corr.Consume(ctx, correlationID)
			if err == nil {
				assert.Equal(t, order.ID, gotID)
				wins[n] = true
			} else {
				assert.ErrorIs(t, err, model.ErrCorrelationUnknown)
			}
		}(i)
	}
	wg.Wait()

	winCount := 0
	for _, won := range wins {
		if won {
			winCount++
		}
	}
	assert.Equal(t, 1, winCount, "exactly one concurrent consume must win")
}

func TestCorrelator_ConsumeReturnsNilUUIDOnError(t *testing.T) {
	corr := correlator.NewPostgresCorrelator(SetupTestDB(t).Pool, zerolog.Nop())

	got, err := corr.Consume(context.Background(), "MISSING0000000")

	assert.ErrorIs(t, err, model.ErrCorrelationUnknown)
	assert.Equal(t, uuid.Nil, got)
}
