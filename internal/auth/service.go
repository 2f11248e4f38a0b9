package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"trade-analytics-go/internal/config"
	"trade-analytics-go/internal/email"
	"trade-analytics-go/internal/models"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrEmailTaken marks a registration against an existing email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials marks a failed sign-in. Callers must not
	// distinguish unknown email from wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidCode marks a missing, wrong, or expired verification code.
	ErrInvalidCode = errors.New("invalid or expired verification code")
)

// SessionInfo is an issued session together with its user.
type SessionInfo struct {
	User      models.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// Service handles user accounts, sessions, email verification, and
// password reset against the shared database handle.
type Service struct {
	db              *gorm.DB
	logger          *zap.Logger
	tokens          *TokenIssuer
	mailer          email.Mailer
	verificationTTL time.Duration
}

// NewService creates the auth service. The mailer may be nil, in which
// case verification and reset emails are skipped (useful in tests).
func NewService(db *gorm.DB, logger *zap.Logger, tokens *TokenIssuer, mailer email.Mailer, cfg *config.Auth) *Service {
	return &Service{
		db:              db,
		logger:          logger,
		tokens:          tokens,
		mailer:          mailer,
		verificationTTL: time.Duration(cfg.VerificationTTLMinutes) * time.Minute,
	}
}

// Register creates a new user, stores a verification code, and emails it.
func (s *Service) Register(emailAddr, password, name, image string) (*models.User, error) {
	var existing models.User
	err := s.db.Where("email = ?", emailAddr).First(&existing).Error
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("could not check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("could not hash password: %w", err)
	}

	user := models.User{
		Email:        emailAddr,
		PasswordHash: string(hash),
		Name:         name,
		Image:        image,
		Role:         models.RoleUser,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("could not create user: %w", err)
	}

	code, err := s.createVerification(emailAddr)
	if err != nil {
		return nil, err
	}
	s.sendMail(func() error { return email.SendVerificationEmail(s.mailer, emailAddr, code) },
		"verification", emailAddr)

	s.logger.Info("User registered", zap.String("email", emailAddr))
	return &user, nil
}

// Authenticate checks credentials and returns the user on success.
func (s *Service) Authenticate(emailAddr, password string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", emailAddr).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("could not look up user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	s.logger.Info("User authenticated", zap.String("email", emailAddr))
	return &user, nil
}

// CreateSession issues a token for an authenticated user and persists the
// session row.
func (s *Service) CreateSession(user *models.User) (*SessionInfo, error) {
	token, expiresAt, err := s.tokens.IssueSession(user)
	if err != nil {
		return nil, fmt.Errorf("could not issue session token: %w", err)
	}

	session := models.Session{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: expiresAt,
	}
	if err := s.db.Create(&session).Error; err != nil {
		return nil, fmt.Errorf("could not persist session: %w", err)
	}

	return &SessionInfo{User: *user, Token: token, ExpiresAt: expiresAt}, nil
}

// GetSession validates a token against both its signature and the session
// store. Expired rows are deleted on sight.
func (s *Service) GetSession(token string) (*SessionInfo, error) {
	if _, err := s.tokens.Verify(token); err != nil {
		return nil, ErrInvalidToken
	}

	var session models.Session
	if err := s.db.Where("token = ?", token).First(&session).Error; err != nil {
		return nil, ErrInvalidToken
	}
	if session.ExpiresAt.Before(time.Now()) {
		s.db.Delete(&session)
		return nil, ErrInvalidToken
	}

	var user models.User
	if err := s.db.First(&user, session.UserID).Error; err != nil {
		return nil, ErrInvalidToken
	}

	return &SessionInfo{User: user, Token: token, ExpiresAt: session.ExpiresAt}, nil
}

// DeleteSession removes a session (sign-out). Unknown tokens are not an
// error.
func (s *Service) DeleteSession(token string) error {
	return s.db.Where("token = ?", token).Delete(&models.Session{}).Error
}

// CleanupExpiredSessions removes all sessions past their expiry and
// returns how many were deleted.
func (s *Service) CleanupExpiredSessions() (int64, error) {
	res := s.db.Where("expires_at < ?", time.Now()).Delete(&models.Session{})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		s.logger.Info("Expired sessions removed", zap.Int64("count", res.RowsAffected))
	}
	return res.RowsAffected, nil
}

// VerifyEmail consumes a verification code and marks the user verified.
func (s *Service) VerifyEmail(emailAddr, code string) error {
	var verification models.Verification
	err := s.db.Where("identifier = ? AND code = ?", emailAddr, code).First(&verification).Error
	if err != nil {
		return ErrInvalidCode
	}
	if verification.ExpiresAt.Before(time.Now()) {
		return ErrInvalidCode
	}

	var user models.User
	if err := s.db.Where("email = ?", emailAddr).First(&user).Error; err != nil {
		return ErrInvalidCode
	}

	if err := s.db.Model(&user).Update("email_verified", true).Error; err != nil {
		return fmt.Errorf("could not mark user verified: %w", err)
	}
	s.db.Delete(&verification)

	s.sendMail(func() error { return email.SendWelcomeEmail(s.mailer, user.Email, user.Name) },
		"welcome", user.Email)

	s.logger.Info("Email verified", zap.String("email", emailAddr))
	return nil
}

// ResendVerification issues a fresh code for an unverified user.
func (s *Service) ResendVerification(emailAddr string) error {
	var user models.User
	if err := s.db.Where("email = ?", emailAddr).First(&user).Error; err != nil {
		return ErrInvalidCode
	}
	if user.EmailVerified {
		return ErrInvalidCode
	}

	code, err := s.createVerification(emailAddr)
	if err != nil {
		return err
	}
	s.sendMail(func() error { return email.SendVerificationEmail(s.mailer, emailAddr, code) },
		"verification", emailAddr)
	return nil
}

// ForgotPassword stores a reset token and emails it. Always reports
// success to the caller so account existence is not revealed.
func (s *Service) ForgotPassword(emailAddr string) {
	var user models.User
	if err := s.db.Where("email = ?", emailAddr).First(&user).Error; err != nil {
		s.logger.Warn("Password reset requested for unknown email", zap.String("email", emailAddr))
		return
	}

	token, expiresAt, err := s.tokens.IssueReset(user.Email)
	if err != nil {
		s.logger.Error("Could not issue reset token", zap.Error(err))
		return
	}
	if err := s.storeVerification(user.Email, token, expiresAt); err != nil {
		s.logger.Error("Could not store reset token", zap.Error(err))
		return
	}

	s.sendMail(func() error { return email.SendPasswordResetEmail(s.mailer, user.Email, token) },
		"password reset", user.Email)
}

// ResetPassword sets a new password from a reset token and revokes every
// session of that user.
func (s *Service) ResetPassword(token, newPassword string) error {
	claims, err := s.tokens.Verify(token)
	if err != nil || claims.TokenType != resetTokenType || claims.Email == "" {
		return ErrInvalidToken
	}

	var user models.User
	if err := s.db.Where("email = ?", claims.Email).First(&user).Error; err != nil {
		return ErrInvalidToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("could not hash password: %w", err)
	}
	if err := s.db.Model(&user).Update("password_hash", string(hash)).Error; err != nil {
		return fmt.Errorf("could not update password: %w", err)
	}

	if err := s.db.Where("user_id = ?", user.ID).Delete(&models.Session{}).Error; err != nil {
		s.logger.Error("Could not revoke sessions after reset", zap.Error(err))
	}

	s.logger.Info("Password reset", zap.String("email", claims.Email))
	return nil
}

// LinkOAuthAccount records an external identity for a user.
func (s *Service) LinkOAuthAccount(userID uint, provider, providerID string) (*models.OAuthAccount, error) {
	account := models.OAuthAccount{
		UserID:     userID,
		Provider:   provider,
		ProviderID: providerID,
	}
	if err := s.db.Create(&account).Error; err != nil {
		return nil, fmt.Errorf("could not link oauth account: %w", err)
	}
	return &account, nil
}

// FindOAuthAccount looks up an external identity.
func (s *Service) FindOAuthAccount(provider, providerID string) (*models.OAuthAccount, error) {
	var account models.OAuthAccount
	err := s.db.Where("provider = ? AND provider_id = ?", provider, providerID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// createVerification stores a fresh 6-digit code for an identifier,
// replacing any previous one.
func (s *Service) createVerification(identifier string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}
	if err := s.storeVerification(identifier, code, time.Now().Add(s.verificationTTL)); err != nil {
		return "", err
	}
	return code, nil
}

// storeVerification keeps at most one active verification per identifier.
func (s *Service) storeVerification(identifier, code string, expiresAt time.Time) error {
	if err := s.db.Where("identifier = ?", identifier).Delete(&models.Verification{}).Error; err != nil {
		return fmt.Errorf("could not clear previous verifications: %w", err)
	}
	verification := models.Verification{
		Identifier: identifier,
		Code:       code,
		ExpiresAt:  expiresAt,
	}
	if err := s.db.Create(&verification).Error; err != nil {
		return fmt.Errorf("could not store verification: %w", err)
	}
	return nil
}

// sendMail runs an email delivery, logging failures instead of failing
// the calling operation.
func (s *Service) sendMail(send func() error, kind, to string) {
	if s.mailer == nil {
		return
	}
	if err := send(); err != nil {
		s.logger.Error("Failed to send email",
			zap.String("kind", kind), zap.String("to", to), zap.Error(err))
	}
}

// generateCode returns a random 6-digit verification code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("could not generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
