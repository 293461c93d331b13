//go:build integration

package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starshield/warranty/internal/audit"
	"github.com/starshield/warranty/internal/database/dbtest"
)

func TestPostgresRepository(t *testing.T) {
	repo := audit.NewPostgresRepository(dbtest.NewPool(t))
	ctx := context.Background()
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	entries := []*audit.Entry{
		{
			ID: "aud_pg_1", Action: audit.ActionCreate, EntityType: audit.EntityDevice, EntityID: "dev_1",
			Description: "Device registered successfully: 111111111111111",
			Metadata:    map[string]any{"warrantyId": "war_1"},
			IPAddress:   "203.0.113.7", RequestID: "req_1", Timestamp: base,
		},
		{
			ID: "aud_pg_2", Action: audit.ActionSubmitClaim, EntityType: audit.EntityClaim, EntityID: "clm_1",
			Description: "Claim submitted with protocol: SGR1",
			Metadata:    map[string]any{"supportEmailSent": true},
			Timestamp:   base.Add(time.Minute),
		},
		{
			ID: "aud_pg_3", Action: audit.ActionValidateWarranty, EntityType: audit.EntityDevice,
			Description: "Device not found for validation: 999", Timestamp: base.Add(2 * time.Minute),
		},
	}
	for _, e := range entries {
		require.NoError(t, repo.Append(ctx, e))
	}

	t.Run("list by entity", func(t *testing.T) {
		got, err := repo.ListByEntity(ctx, audit.EntityDevice, "dev_1")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "aud_pg_1", got[0].ID)
		assert.Equal(t, "203.0.113.7", got[0].IPAddress)
		assert.Equal(t, "war_1", got[0].Metadata["warrantyId"])
	})

	t.Run("list newest first", func(t *testing.T) {
		got, err := repo.List(ctx, audit.ListOptions{Limit: 2})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "aud_pg_3", got[0].ID)
		assert.Equal(t, "aud_pg_2", got[1].ID)
		assert.Equal(t, true, got[1].Metadata["supportEmailSent"])
	})
}
