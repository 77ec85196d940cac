package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"agilecoach/internal/model"
)

func TestRoleRepository_SetRoleOverwrites(t *testing.T) {
	roles := NewRoleRepository(openTestDB(t))
	ctx := context.Background()
	id := uuid.New()

	_, err := roles.FindRole(ctx, id)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, roles.SetRole(ctx, id, model.RoleInstructor))
	require.NoError(t, roles.SetRole(ctx, id, model.RoleAdmin))

	role, err := roles.FindRole(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, role)

	all, err := roles.ListRoles(ctx, []uuid.UUID{id, uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]model.Role{id: model.RoleAdmin}, all)
}

func TestSettingRepository_UpsertOnKey(t *testing.T) {
	settings := NewSettingRepository(openTestDB(t))
	ctx := context.Background()
	desc := "Footer contact block"

	require.NoError(t, settings.Upsert(ctx, &model.SiteSetting{
		Key:         "contact_info",
		Value:       datatypes.JSON(`{"email":"hello@example.com"}`),
		Description: desc,
	}))
	require.NoError(t, settings.Upsert(ctx, &model.SiteSetting{
		Key:         "contact_info",
		Value:       datatypes.JSON(`{"email":"office@example.com"}`),
		Description: desc,
	}))

	rows, err := settings.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.JSONEq(t, `{"email":"office@example.com"}`, string(rows[0].Value))

	_, err = settings.FindByKey(ctx, "social_links")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
