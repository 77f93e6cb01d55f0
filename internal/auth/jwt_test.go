package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"reelworks/studio/internal/models"
)

func TestGenerateAndValidateJWT(t *testing.T) {
	secret := "test-secret"
	token, err := GenerateJWT("user-1", models.RoleClient, secret, time.Hour)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := ValidateJWT(token, secret)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleClient, claims.Role)
}

func TestValidateJWT_WrongSecret(t *testing.T) {
	token, err := GenerateJWT("user-1", models.RoleClient, "secret-a", time.Hour)
	assert.NoError(t, err)

	_, err = ValidateJWT(token, "secret-b")
	assert.Error(t, err)
}

func TestValidateJWT_Expired(t *testing.T) {
	token, err := GenerateJWT("user-1", models.RoleAdmin, "secret", -time.Minute)
	assert.NoError(t, err)

	_, err = ValidateJWT(token, "secret")
	assert.Error(t, err)
}

func TestValidateJWT_Garbage(t *testing.T) {
	_, err := ValidateJWT("not.a.token", "secret")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("swordfish99")
	assert.NoError(t, err)
	assert.NotEqual(t, "swordfish99", hash)

	assert.True(t, CheckPasswordHash("swordfish99", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}
