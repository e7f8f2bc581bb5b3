package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"citasalud-server/internal/config"
	"citasalud-server/internal/models"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:                 "test-secret",
		JWTRefreshSecret:          "test-refresh-secret",
		JWTExpirationMinutes:      15,
		JWTRefreshExpirationHours: 168,
	}
}

func TestGenerateAndValidateTokens(t *testing.T) {
	cfg := testConfig()
	user := &models.User{
		BaseModel: models.BaseModel{ID: "user-1"},
		Role:      models.RoleAffiliate,
	}

	access, refresh, err := GenerateTokens(user, cfg)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	assert.NotEqual(t, access, refresh)

	claims, err := ValidateToken(access, cfg.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleAffiliate, claims.Role)

	refreshClaims, err := ValidateToken(refresh, cfg.JWTRefreshSecret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", refreshClaims.UserID)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	cfg := testConfig()
	user := &models.User{BaseModel: models.BaseModel{ID: "user-1"}}

	access, _, err := GenerateTokens(user, cfg)
	require.NoError(t, err)

	_, err = ValidateToken(access, "some-other-secret")
	assert.Error(t, err)

	// Access tokens must not validate against the refresh secret.
	_, err = ValidateToken(access, cfg.JWTRefreshSecret)
	assert.Error(t, err)
}

func TestValidateTokenGarbage(t *testing.T) {
	_, err := ValidateToken("not.a.token", "secret")
	assert.Error(t, err)
}
