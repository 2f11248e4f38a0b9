package auth

import (
	"testing"
	"time"

	"trade-analytics-go/internal/config"
	"trade-analytics-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupService creates a service backed by a fresh in-memory database.
func setupService(t *testing.T) (*Service, *gorm.DB) {
	// Use a new, non-shared in-memory database for each test to ensure isolation.
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.User{}, &models.Session{}, &models.Verification{}, &models.OAuthAccount{})
	require.NoError(t, err)

	cfg := &config.Auth{
		JWTSecret:              "test-secret",
		TokenTTLMinutes:        60,
		ResetTTLMinutes:        60,
		VerificationTTLMinutes: 15,
	}
	service := NewService(db, zap.NewNop(), NewTokenIssuer(cfg), nil, cfg)
	return service, db
}

func TestRegister_CreatesUserAndVerification(t *testing.T) {
	service, db := setupService(t)

	user, err := service.Register("trader@example.com", "hunter22", "Trader", "")
	require.NoError(t, err)
	assert.Equal(t, "trader@example.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.False(t, user.EmailVerified)
	assert.NotEqual(t, "hunter22", user.PasswordHash)

	var verification models.Verification
	require.NoError(t, db.Where("identifier = ?", user.Email).First(&verification).Error)
	assert.Len(t, verification.Code, 6)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	service, _ := setupService(t)

	_, err := service.Register("trader@example.com", "hunter22", "Trader", "")
	require.NoError(t, err)

	_, err = service.Register("trader@example.com", "other", "Other", "")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthenticate(t *testing.T) {
	service, _ := setupService(t)

	_, err := service.Register("trader@example.com", "hunter22", "Trader", "")
	require.NoError(t, err)

	user, err := service.Authenticate("trader@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "trader@example.com", user.Email)

	_, err = service.Authenticate("trader@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = service.Authenticate("nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSessionLifecycle(t *testing.T) {
	service, _ := setupService(t)

	user, err := service.Register("trader@example.com", "hunter22", "Trader", "")
	require.NoError(t, err)

	session, err := service.CreateSession(user)
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	got, err := service.GetSession(session.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.User.ID)

	require.NoError(t, service.DeleteSession(session.Token))
	_, err = service.GetSession(session.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGetSession_ExpiredRowDeleted(t *testing.T) {
	service, db := setupService(t)

	user, err := service.Register("trader@example.com", "hunter22", "Trader", "")
	require.NoError(t, err)
	session, err := service.CreateSession(user)
	require.NoError(t, err)

	// Expire the stored row while the token itself is still valid.
	require.NoError(t, db.Model(&models.Session{}).
		Where("token = ?", session.Token).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	_, err = service.GetSession(session.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	var count int64
	db.Model(&models.Session{}).Where("token = ?", session.Token).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestGetSession_GarbageToken(t *testing.T) {
	service, _ := setupService(t)
	_, err := service.GetSession("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyEmail(t *testing.T) {
	service, db := setupService(t)

	user, err := service.Register("trader@example.com", "hunter22", "Trader", "")
	require.NoError(t, err)

	var verification models.Verification
	require.NoError(t, db.Where("identifier = ?", user.Email).First(&verification).Error)

	assert.ErrorIs(t, service.VerifyEmail(user.Email, "000000"), ErrInvalidCode)

	require.NoError(t, service.VerifyEmail(user.Email, verification.Code))

	var updated models.User
	require.NoError(t, db.First(&updated, user.ID).Error)
	assert.True(t, updated.EmailVerified)

	// Code is single-use.
	assert.ErrorIs(t, service.VerifyEmail(user.Email, verification.Code), ErrInvalidCode)
}

func TestVerifyEmail_ExpiredCode(t *testing.T) {
	service, db := setupService(t)

	user, err := service.Register("trader@example.com", "hunter22", "Trader", "")
	require.NoError(t, err)

	var verification models.Verification
	require.NoError(t, db.Where("identifier = ?", user.Email).First(&verification).Error)
	require.NoError(t, db.Model(&verification).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	assert.ErrorIs(t, service.VerifyEmail(user.Email, verification.Code), ErrInvalidCode)
}

func TestResendVerification(t *testing.T) {
	service, db := setupService(t)

	user, err := service.Register("trader@example.com", "hunter22", "Trader", "")
	require.NoError(t, err)

	var first models.Verification
	require.NoError(t, db.Where("identifier = ?", user.Email).First(&first).Error)

	require.NoError(t, service.ResendVerification(user.Email))

	// Only one active verification per identifier.
	var count int64
	db.Model(&models.Verification{}).Where("identifier = ?", user.Email).Count(&count)
	assert.Equal(t, int64(1), count)

	// Verified users cannot request codes.
	var verification models.Verification
	require.NoError(t, db.Where("identifier = ?", user.Email).First(&verification).Error)
	require.NoError(t, service.VerifyEmail(user.Email, verification.Code))
	assert.ErrorIs(t, service.ResendVerification(user.Email), ErrInvalidCode)
}

func TestPasswordResetFlow(t *testing.T) {
	service, db := setupService(t)

	user, err := service.Register("trader@example.com", "hunter22", "Trader", "")
	require.NoError(t, err)
	session, err := service.CreateSession(user)
	require.NoError(t, err)

	service.ForgotPassword(user.Email)

	var verification models.Verification
	require.NoError(t, db.Where("identifier = ?", user.Email).First(&verification).Error)
	resetToken := verification.Code

	require.NoError(t, service.ResetPassword(resetToken, "new-password"))

	// Old password rejected, new one accepted.
	_, err = service.Authenticate(user.Email, "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = service.Authenticate(user.Email, "new-password")
	assert.NoError(t, err)

	// All sessions revoked by the reset.
	_, err = service.GetSession(session.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResetPassword_RejectsSessionToken(t *testing.T) {
	service, _ := setupService(t)

	user, err := service.Register("trader@example.com", "hunter22", "Trader", "")
	require.NoError(t, err)
	session, err := service.CreateSession(user)
	require.NoError(t, err)

	// A session token must not work as a reset token.
	assert.ErrorIs(t, service.ResetPassword(session.Token, "new-password"), ErrInvalidToken)
}

func TestForgotPassword_UnknownEmailIsSilent(t *testing.T) {
	service, db := setupService(t)

	service.ForgotPassword("nobody@example.com")

	var count int64
	db.Model(&models.Verification{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestCleanupExpiredSessions(t *testing.T) {
	service, db := setupService(t)

	user, err := service.Register("trader@example.com", "hunter22", "Trader", "")
	require.NoError(t, err)

	live, err := service.CreateSession(user)
	require.NoError(t, err)
	stale, err := service.CreateSession(user)
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Session{}).
		Where("token = ?", stale.Token).
		Update("expires_at", time.Now().Add(-time.Hour)).Error)

	removed, err := service.CleanupExpiredSessions()
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = service.GetSession(live.Token)
	assert.NoError(t, err)
}

func TestOAuthAccounts(t *testing.T) {
	service, _ := setupService(t)

	user, err := service.Register("trader@example.com", "hunter22", "Trader", "")
	require.NoError(t, err)

	missing, err := service.FindOAuthAccount(models.ProviderGoogle, "g-123")
	require.NoError(t, err)
	assert.Nil(t, missing)

	linked, err := service.LinkOAuthAccount(user.ID, models.ProviderGoogle, "g-123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, linked.UserID)

	found, err := service.FindOAuthAccount(models.ProviderGoogle, "g-123")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, linked.ID, found.ID)
}
