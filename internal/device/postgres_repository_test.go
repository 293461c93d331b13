//go:build integration

package device_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starshield/warranty/internal/database/dbtest"
	"github.com/starshield/warranty/internal/device"
)

func testDevice(id, imei, fiscal string) *device.Device {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	return &device.Device{
		ID:           id,
		IMEI:         imei,
		FiscalNumber: fiscal,
		Model:        "Galaxy S23",
		Brand:        "Samsung",
		PurchaseDate: now.AddDate(0, -1, 0),
		Owner: device.Owner{
			TaxID: "12345678909",
			Name:  "Maria Souza",
			Email: "maria@example.com",
			Phone: "+5511999990000",
		},
		Photos:    []string{"front.jpg", "back.jpg"},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestPostgresRepository(t *testing.T) {
	repo := device.NewPostgresRepository(dbtest.NewPool(t))
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		d := testDevice("dev_pg_1", "111111111111111", "NF-1")
		require.NoError(t, repo.Create(ctx, d))

		got, err := repo.Get(ctx, d.ID)
		require.NoError(t, err)
		assert.Equal(t, d.IMEI, got.IMEI)
		assert.Equal(t, d.Owner, got.Owner)
		assert.Equal(t, d.Photos, got.Photos)
		assert.True(t, got.PurchaseDate.Equal(d.PurchaseDate))
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := repo.Get(ctx, "dev_missing")
		assert.ErrorIs(t, err, device.ErrDeviceNotFound)
	})

	t.Run("duplicate identifiers", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, testDevice("dev_pg_2", "222222222222222", "NF-2")))

		err := repo.Create(ctx, testDevice("dev_pg_3", "222222222222222", "NF-3"))
		assert.ErrorIs(t, err, device.ErrDuplicateDevice)

		err = repo.Create(ctx, testDevice("dev_pg_4", "444444444444444", "NF-2"))
		assert.ErrorIs(t, err, device.ErrDuplicateDevice)
	})

	t.Run("find active by lookup", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, testDevice("dev_pg_5", "555555555555555", "NF-5")))

		got, err := repo.FindActive(ctx, device.Lookup{
			FiscalNumber: "NF-5",
			Model:        "Galaxy S23",
			OwnerTaxID:   "12345678909",
		})
		require.NoError(t, err)
		assert.Equal(t, "dev_pg_5", got.ID)

		_, err = repo.FindActive(ctx, device.Lookup{
			IMEI:       "555555555555555",
			Model:      "iPhone 15",
			OwnerTaxID: "12345678909",
		})
		assert.ErrorIs(t, err, device.ErrDeviceNotFound)
	})

	t.Run("deactivate frees identifiers", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, testDevice("dev_pg_6", "666666666666666", "NF-6")))
		require.NoError(t, repo.Deactivate(ctx, "dev_pg_6", time.Now()))

		_, err := repo.FindActiveByIdentifier(ctx, "666666666666666", "NF-6")
		assert.ErrorIs(t, err, device.ErrDeviceNotFound)

		require.NoError(t, repo.Create(ctx, testDevice("dev_pg_7", "666666666666666", "NF-6")))
		got, err := repo.FindActiveByIdentifier(ctx, "666666666666666", "")
		require.NoError(t, err)
		assert.Equal(t, "dev_pg_7", got.ID)
	})
}
