package device_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starshield/warranty/internal/device"
)

func newDevice(id, imei, fiscal string) *device.Device {
	now := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
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

func TestInMemoryRepository_Create_RejectsDuplicates(t *testing.T) {
	repo := device.NewInMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newDevice("dev_1", "356938035643809", "NF-1")))

	err := repo.Create(ctx, newDevice("dev_2", "356938035643809", "NF-2"))
	assert.ErrorIs(t, err, device.ErrDuplicateDevice, "same IMEI")

	err = repo.Create(ctx, newDevice("dev_3", "490154203237518", "NF-1"))
	assert.ErrorIs(t, err, device.ErrDuplicateDevice, "same fiscal number")
}

func TestInMemoryRepository_Deactivate_ReleasesIdentifiers(t *testing.T) {
	repo := device.NewInMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newDevice("dev_1", "356938035643809", "NF-1")))
	require.NoError(t, repo.Deactivate(ctx, "dev_1", time.Now()))

	_, err := repo.FindActiveByIdentifier(ctx, "356938035643809", "")
	assert.ErrorIs(t, err, device.ErrDeviceNotFound)

	require.NoError(t, repo.Create(ctx, newDevice("dev_2", "356938035643809", "NF-1")))

	old, err := repo.Get(ctx, "dev_1")
	require.NoError(t, err)
	assert.False(t, old.IsActive)

	assert.ErrorIs(t, repo.Deactivate(ctx, "missing", time.Now()), device.ErrDeviceNotFound)
}

func TestInMemoryRepository_FindActive(t *testing.T) {
	repo := device.NewInMemoryRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newDevice("dev_1", "356938035643809", "NF-1")))

	tests := []struct {
		name   string
		lookup device.Lookup
		wantID string
	}{
		{
			name:   "by imei",
			lookup: device.Lookup{IMEI: "356938035643809", Model: "Galaxy S23", OwnerTaxID: "12345678909"},
			wantID: "dev_1",
		},
		{
			name:   "by fiscal number",
			lookup: device.Lookup{FiscalNumber: "NF-1", Model: "Galaxy S23", OwnerTaxID: "12345678909"},
			wantID: "dev_1",
		},
		{
			name:   "imei takes precedence over fiscal number",
			lookup: device.Lookup{IMEI: "000000000000000", FiscalNumber: "NF-1", Model: "Galaxy S23", OwnerTaxID: "12345678909"},
		},
		{
			name:   "wrong model",
			lookup: device.Lookup{IMEI: "356938035643809", Model: "iPhone 15", OwnerTaxID: "12345678909"},
		},
		{
			name:   "wrong owner",
			lookup: device.Lookup{IMEI: "356938035643809", Model: "Galaxy S23", OwnerTaxID: "98765432100"},
		},
		{
			name:   "no identifier",
			lookup: device.Lookup{Model: "Galaxy S23", OwnerTaxID: "12345678909"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := repo.FindActive(ctx, tt.lookup)
			if tt.wantID == "" {
				assert.ErrorIs(t, err, device.ErrDeviceNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, d.ID)
		})
	}
}

func TestInMemoryRepository_Get_ReturnsCopy(t *testing.T) {
	repo := device.NewInMemoryRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newDevice("dev_1", "356938035643809", "NF-1")))

	d, err := repo.Get(ctx, "dev_1")
	require.NoError(t, err)
	d.Photos[0] = "tampered.jpg"

	again, err := repo.Get(ctx, "dev_1")
	require.NoError(t, err)
	assert.Equal(t, "front.jpg", again.Photos[0])
}
