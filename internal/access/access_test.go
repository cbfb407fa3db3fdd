package access

import (
	"testing"

	"zenith/internal/models"

	"github.com/stretchr/testify/assert"
)

func identity(id uint, role models.Role) *Identity {
	return &Identity{UserID: id, Username: "u", Role: role}
}

func TestCanModify(t *testing.T) {
	const owner uint = 7

	tests := []struct {
		name      string
		actor     *Identity
		allowed   bool
		anonymous bool
	}{
		{"anonymous", nil, false, true},
		{"owner", identity(owner, models.RoleUser), true, false},
		{"other user", identity(8, models.RoleUser), false, false},
		{"moderator", identity(9, models.RoleModerator), true, false},
		{"admin", identity(10, models.RoleAdmin), true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := CanModify(tt.actor, owner)
			assert.Equal(t, tt.allowed, d.Allowed)
			assert.Equal(t, tt.anonymous, d.Anonymous)
			if !tt.allowed {
				assert.NotEmpty(t, d.Reason)
			}
		})
	}
}

func TestDecisionErr(t *testing.T) {
	assert.NoError(t, CanModify(identity(1, models.RoleUser), 1).Err())

	err := CanModify(nil, 1).Err()
	assert.Equal(t, models.CodeUnauthorized, models.AsAppError(err).Code)

	err = CanModify(identity(2, models.RoleUser), 1).Err()
	assert.Equal(t, models.CodeForbidden, models.AsAppError(err).Code)
}

func TestCanViewPost(t *testing.T) {
	published := &models.Post{AuthorID: 1, Status: models.PostStatusPublished}
	draft := &models.Post{AuthorID: 1, Status: models.PostStatusDraft}

	assert.True(t, CanViewPost(nil, published).Allowed)
	assert.True(t, CanViewPost(identity(2, models.RoleUser), published).Allowed)

	anon := CanViewPost(nil, draft)
	assert.False(t, anon.Allowed)
	assert.True(t, anon.Anonymous)

	stranger := CanViewPost(identity(2, models.RoleUser), draft)
	assert.False(t, stranger.Allowed)
	assert.Equal(t, "post is not published", stranger.Reason)

	assert.True(t, CanViewPost(identity(1, models.RoleUser), draft).Allowed)
	assert.True(t, CanViewPost(identity(3, models.RoleModerator), draft).Allowed)
}

func TestRoleGates(t *testing.T) {
	user := identity(1, models.RoleUser)
	mod := identity(2, models.RoleModerator)
	admin := identity(3, models.RoleAdmin)

	assert.False(t, CanModerate(user).Allowed)
	assert.True(t, CanModerate(mod).Allowed)
	assert.True(t, CanModerate(admin).Allowed)
	assert.True(t, CanModerate(nil).Anonymous)

	assert.False(t, CanAdminister(mod).Allowed)
	assert.True(t, CanAdminister(admin).Allowed)

	assert.False(t, RequireAuthenticated(nil).Allowed)
	assert.False(t, RequireAuthenticated(&Identity{}).Allowed)
	assert.True(t, RequireAuthenticated(user).Allowed)
}
