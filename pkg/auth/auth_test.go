package auth

import (
	"path/filepath"
	"testing"

	"github.com/arnavshah/team-allocator-go/pkg/database"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestHMACKey(t *testing.T) {
	a := NewAuthenticator("jwt", "master")

	key := a.GenerateHMACKey("church.youth")
	userID, err := a.VerifyHMACKey(key)
	require.NoError(t, err)
	require.Equal(t, "church.youth", userID)
	require.Equal(t, key, SignHMAC("master", "church.youth"))

	_, err = NewAuthenticator("jwt", "other").VerifyHMACKey(key)
	require.ErrorIs(t, err, ErrInvalidSignature)

	_, err = a.VerifyHMACKey("no-dot")
	require.ErrorIs(t, err, ErrInvalidKeyFormat)
	_, err = a.VerifyHMACKey("trailing.")
	require.ErrorIs(t, err, ErrInvalidKeyFormat)
}

func TestToken(t *testing.T) {
	a := NewAuthenticator("jwt-secret", "master")

	token, err := a.CreateToken("admin")
	require.NoError(t, err)

	claims, err := a.VerifyToken(token)
	require.NoError(t, err)
	require.Equal(t, "admin", claims.Username)

	_, err = NewAuthenticator("other", "master").VerifyToken(token)
	require.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	require.True(t, CheckPasswordHash("s3cret", hash))
	require.False(t, CheckPasswordHash("wrong", hash))
}

func TestEnsureAdminExists(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "auth.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	created, err := EnsureAdminExists(db, "admin", "pw")
	require.NoError(t, err)
	require.True(t, created)

	created, err = EnsureAdminExists(db, "admin", "pw")
	require.NoError(t, err)
	require.False(t, created)

	var user database.MasterUser
	require.NoError(t, db.Where("username = ?", "admin").First(&user).Error)
	require.True(t, CheckPasswordHash("pw", user.PasswordHash))
}
