package main

import (
	"bytes"
	"context"
	"testing"

	"zenith/internal/models"
	"zenith/internal/repository"
	"zenith/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetRole(t *testing.T) {
	db := testutil.OpenSQLite(t)
	users := repository.NewUserRepository(db)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice", models.RoleUser)

	t.Run("promotes", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, setRole(ctx, users, "alice", models.RoleModerator, &out))
		assert.Equal(t, "alice: USER -> MODERATOR\n", out.String())

		reloaded, err := users.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RoleModerator, reloaded.Role)
	})

	t.Run("unchanged", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, setRole(ctx, users, "alice", models.RoleModerator, &out))
		assert.Equal(t, "alice is already MODERATOR\n", out.String())
	})

	t.Run("unknown user", func(t *testing.T) {
		var out bytes.Buffer
		err := setRole(ctx, users, "nosuchuser", models.RoleAdmin, &out)
		require.EqualError(t, err, `user "nosuchuser" not found`)
		assert.Empty(t, out.String())
	})
}
