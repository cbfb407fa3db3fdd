package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"zenith/internal/models"
	"zenith/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const strongPassword = "Correct-Horse-42"

// revocationStub is an in-memory auth.RevocationStore.
type revocationStub struct {
	revoked map[string]time.Time
	err     error
}

func (r *revocationStub) Revoke(_ context.Context, jti string, until time.Time) error {
	if r.revoked == nil {
		r.revoked = map[string]time.Time{}
	}
	r.revoked[jti] = until
	return nil
}

func (r *revocationStub) IsRevoked(_ context.Context, jti string) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	_, ok := r.revoked[jti]
	return ok, nil
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.auth.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: strongPassword})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, models.RoleUser, res.User.Role)
	assert.NotEqual(t, strongPassword, res.User.Password)

	byName, err := env.auth.Login(ctx, LoginInput{Username: "ALICE", Password: strongPassword})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, byName.User.ID)

	byEmail, err := env.auth.Login(ctx, LoginInput{Email: "Alice@Example.com", Password: strongPassword})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, byEmail.User.ID)

	id, err := env.auth.Authenticate(ctx, byName.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, id.UserID)
	assert.Equal(t, models.RoleUser, id.Role)
}

func TestAuthService_RegisterRejectsDuplicates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.auth.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: strongPassword})
	require.NoError(t, err)

	_, err = env.auth.Register(ctx, RegisterInput{Username: "Alice", Email: "other@example.com", Password: strongPassword})
	assertAppError(t, err, models.CodeDuplicate)

	_, err = env.auth.Register(ctx, RegisterInput{Username: "other", Email: "ALICE@example.com", Password: strongPassword})
	assertAppError(t, err, models.CodeDuplicate)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cases := []RegisterInput{
		{Username: "ab", Email: "a@example.com", Password: strongPassword},
		{Username: "_alice", Email: "a@example.com", Password: strongPassword},
		{Username: "alice", Email: "not-an-email", Password: strongPassword},
		{Username: "alice", Email: "a@example.com", Password: "short"},
		{Username: "alice", Email: "a@example.com", Password: "alllowercase-123"},
	}
	for _, in := range cases {
		_, err := env.auth.Register(ctx, in)
		assertAppError(t, err, models.CodeValidation)
	}
}

func TestAuthService_LoginFailuresAreUniform(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.auth.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: strongPassword})
	require.NoError(t, err)

	_, wrongPassword := env.auth.Login(ctx, LoginInput{Username: "alice", Password: "Wrong-Password-1"})
	_, unknownUser := env.auth.Login(ctx, LoginInput{Username: "nobody", Password: strongPassword})
	assertAppError(t, wrongPassword, models.CodeUnauthorized)
	assertAppError(t, unknownUser, models.CodeUnauthorized)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())

	_, err = env.auth.Login(ctx, LoginInput{Password: strongPassword})
	assertAppError(t, err, models.CodeValidation)
}

func TestAuthService_AuthenticateReflectsCurrentUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res, err := env.auth.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: strongPassword})
	require.NoError(t, err)

	require.NoError(t, env.db.Model(&models.User{}).Where("id = ?", res.User.ID).Update("role", models.RoleModerator).Error)
	id, err := env.auth.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleModerator, id.Role)

	require.NoError(t, env.db.Delete(&models.User{}, res.User.ID).Error)
	_, err = env.auth.Authenticate(ctx, res.Token)
	assertAppError(t, err, models.CodeUnauthorized)
}

func TestAuthService_RejectsGarbageToken(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.auth.Authenticate(context.Background(), "not.a.jwt")
	assertAppError(t, err, models.CodeUnauthorized)
}

func TestAuthService_Logout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	revocations := &revocationStub{}
	env.auth.revocations = revocations
	user := testutil.CreateUser(t, env.db, "alice", models.RoleUser)

	res, err := env.auth.issue(user)
	require.NoError(t, err)

	require.NoError(t, env.auth.Logout(ctx, res.Token))
	_, err = env.auth.Authenticate(ctx, res.Token)
	assertAppError(t, err, models.CodeUnauthorized)

	// an unreachable deny-list does not lock everyone out
	other, err := env.auth.issue(testutil.CreateUser(t, env.db, "bob", models.RoleUser))
	require.NoError(t, err)
	revocations.err = errors.New("redis down")
	_, err = env.auth.Authenticate(ctx, other.Token)
	assert.NoError(t, err)

	err = env.auth.Logout(ctx, "garbage")
	assertAppError(t, err, models.CodeUnauthorized)
}
