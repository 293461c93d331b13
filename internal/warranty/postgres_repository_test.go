//go:build integration

package warranty_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starshield/warranty/internal/database/dbtest"
	"github.com/starshield/warranty/internal/device"
	"github.com/starshield/warranty/internal/warranty"
)

func TestPostgresRepository(t *testing.T) {
	pool := dbtest.NewPool(t)
	devices := device.NewPostgresRepository(pool)
	repo := warranty.NewPostgresRepository(pool)
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, devices.Create(ctx, &device.Device{
		ID: "dev_pg_1", IMEI: "111111111111111", FiscalNumber: "NF-1",
		Model: "Galaxy S23", Brand: "Samsung", PurchaseDate: now,
		Owner:  device.Owner{TaxID: "12345678909", Name: "Maria", Email: "maria@example.com", Phone: "+55"},
		Photos: []string{"a.jpg", "b.jpg"}, IsActive: true, CreatedAt: now, UpdatedAt: now,
	}))

	newWarranty := func(id, policy string, maxClaims int) *warranty.Warranty {
		return &warranty.Warranty{
			ID: id, DeviceID: "dev_pg_1", CoverageType: warranty.CoverageScreenOnly,
			StartDate: now, EndDate: now.AddDate(1, 0, 0), Status: warranty.StatusActive,
			MaxClaims: maxClaims, PolicyNumber: policy, IsActive: true, CreatedAt: now, UpdatedAt: now,
		}
	}

	t.Run("create and get active", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, newWarranty("war_pg_1", "POL-PG-1", 2)))

		got, err := repo.GetActiveByDevice(ctx, "dev_pg_1")
		require.NoError(t, err)
		assert.Equal(t, "war_pg_1", got.ID)
		assert.Equal(t, 2, got.RemainingClaims())
	})

	t.Run("duplicate policy number", func(t *testing.T) {
		err := repo.Create(ctx, newWarranty("war_pg_dup", "POL-PG-1", 2))
		assert.ErrorIs(t, err, warranty.ErrDuplicatePolicyNumber)
	})

	t.Run("update status", func(t *testing.T) {
		require.NoError(t, repo.UpdateStatus(ctx, "war_pg_1", warranty.StatusExpired, now.Add(time.Hour)))

		_, err := repo.GetActiveByDevice(ctx, "dev_pg_1")
		assert.ErrorIs(t, err, warranty.ErrWarrantyNotFound)

		latest, err := repo.GetLatestByDevice(ctx, "dev_pg_1")
		require.NoError(t, err)
		assert.Equal(t, warranty.StatusExpired, latest.Status)

		err = repo.UpdateStatus(ctx, "war_missing", warranty.StatusExpired, now)
		assert.ErrorIs(t, err, warranty.ErrWarrantyNotFound)
	})

	t.Run("increment is guarded under concurrency", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, newWarranty("war_pg_2", "POL-PG-2", 2)))

		const workers = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
			exceeded  int
		)
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.IncrementUsedClaims(ctx, "war_pg_2", now)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					successes++
				case errors.Is(err, warranty.ErrQuotaExceeded):
					exceeded++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 2, successes)
		assert.Equal(t, workers-2, exceeded)

		got, err := repo.Get(ctx, "war_pg_2")
		require.NoError(t, err)
		assert.Equal(t, 2, got.UsedClaims)
	})

	t.Run("increment missing warranty", func(t *testing.T) {
		_, err := repo.IncrementUsedClaims(ctx, "war_missing", now)
		assert.ErrorIs(t, err, warranty.ErrWarrantyNotFound)
	})
}
