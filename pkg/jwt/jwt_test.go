package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	m := NewManager("secret", time.Hour)
	baseID := uuid.New()
	userID := uuid.New()

	token, err := m.GenerateToken(Claims{
		UserID:     userID,
		Username:   "cmdr.north",
		RoleCode:   "BASE_COMMANDER",
		BaseID:     &baseID,
		Privileges: []string{"transfer:approve"},
	})
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "BASE_COMMANDER", claims.RoleCode)
	require.NotNil(t, claims.BaseID)
	assert.Equal(t, baseID, *claims.BaseID)
	assert.Equal(t, []string{"transfer:approve"}, claims.Privileges)
}

func TestValidateRejectsForeignAndExpiredTokens(t *testing.T) {
	token, err := NewManager("other", time.Hour).GenerateToken(Claims{UserID: uuid.New()})
	require.NoError(t, err)

	_, err = NewManager("secret", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// NewManager replaces a non-positive ttl, so build the expiring manager by hand
	m := &Manager{secret: []byte("secret"), ttl: -time.Minute}
	expired, err := m.GenerateToken(Claims{UserID: uuid.New()})
	require.NoError(t, err)
	_, err = m.ValidateToken(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ValidateToken("")
	assert.ErrorIs(t, err, ErrMissingToken)
}
