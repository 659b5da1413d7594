package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"psms/internal/model"
	"psms/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RefreshTokenManager issues, validates, rotates and revokes long-lived
// refresh tokens. Plaintexts are 256-bit random values returned to the caller
// exactly once; only the SHA-256 fingerprint is persisted, so a database
// compromise does not yield usable credentials. A fast hash is fine here —
// the input space is already maximal-entropy, unlike passwords.
//
// Per-token state machine: ISSUED -> {ROTATED | REVOKED | EXPIRED}, all
// terminal.
type RefreshTokenManager struct {
	db  *gorm.DB
	ttl time.Duration
}

func NewRefreshTokenManager(db *gorm.DB, ttl time.Duration) *RefreshTokenManager {
	return &RefreshTokenManager{db: db, ttl: ttl}
}

func hashToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Issue generates a fresh token for userID, persists its hash and returns the
// plaintext. The plaintext is never stored or logged.
func (m *RefreshTokenManager) Issue(ctx context.Context, userID uuid.UUID, deviceInfo string) (string, error) {
	return m.issue(repository.GetDB(ctx, m.db), userID, deviceInfo)
}

func (m *RefreshTokenManager) issue(tx *gorm.DB, userID uuid.UUID, deviceInfo string) (string, error) {
	plaintext, err := generateToken()
	if err != nil {
		return "", err
	}

	record := model.RefreshToken{
		UserID:     userID,
		TokenHash:  hashToken(plaintext),
		DeviceInfo: deviceInfo,
		Revoked:    false,
		ExpiresAt:  time.Now().Add(m.ttl),
	}
	if err := tx.Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to persist refresh token: %w", err)
	}
	return plaintext, nil
}

// Verify reports whether plaintext is an active, unexpired token belonging to
// userID.
func (m *RefreshTokenManager) Verify(ctx context.Context, plaintext string, userID uuid.UUID) bool {
	var record model.RefreshToken
	err := repository.GetDB(ctx, m.db).
		Where("token_hash = ? AND user_id = ? AND revoked = ?", hashToken(plaintext), userID, false).
		First(&record).Error
	if err != nil {
		return false
	}
	return record.Active(time.Now())
}

// FindActive looks up the active record matching plaintext by hash alone.
// The returned row's UserID is the source of truth for the acting principal
// on refresh and logout — callers never supply an identity separately.
func (m *RefreshTokenManager) FindActive(ctx context.Context, plaintext string) (*model.RefreshToken, error) {
	var record model.RefreshToken
	err := repository.GetDB(ctx, m.db).
		Where("token_hash = ? AND revoked = ?", hashToken(plaintext), false).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRefreshTokenInvalid
		}
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}
	if !record.Active(time.Now()) {
		return nil, ErrRefreshTokenInvalid
	}
	return &record, nil
}

// Rotate atomically revokes the token matching oldPlaintext and issues a
// replacement for the same principal. The revoke is a single conditional
// update checked via RowsAffected, so N concurrent rotations of the same
// token produce exactly one winner; losers get ErrRefreshTokenInvalid and no
// replacement is ever issued for an invalid attempt.
func (m *RefreshTokenManager) Rotate(ctx context.Context, oldPlaintext string, userID uuid.UUID, deviceInfo string) (string, error) {
	var newPlaintext string

	err := repository.GetDB(ctx, m.db).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.RefreshToken{}).
			Where("token_hash = ? AND user_id = ? AND revoked = ?", hashToken(oldPlaintext), userID, false).
			Where("expires_at > ?", time.Now()).
			Update("revoked", true)
		if res.Error != nil {
			return fmt.Errorf("failed to revoke refresh token: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrRefreshTokenInvalid
		}

		plaintext, issueErr := m.issue(tx, userID, deviceInfo)
		if issueErr != nil {
			return issueErr
		}
		newPlaintext = plaintext
		return nil
	})
	if err != nil {
		return "", err
	}
	return newPlaintext, nil
}

// Revoke marks the token matching plaintext and userID revoked. It is
// idempotent: revoking an already-revoked or unknown token affects no rows
// and returns false.
func (m *RefreshTokenManager) Revoke(ctx context.Context, plaintext string, userID uuid.UUID) (bool, error) {
	res := repository.GetDB(ctx, m.db).Model(&model.RefreshToken{}).
		Where("token_hash = ? AND user_id = ? AND revoked = ?", hashToken(plaintext), userID, false).
		Update("revoked", true)
	if res.Error != nil {
		return false, fmt.Errorf("failed to revoke refresh token: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// RevokeAllForUser revokes every active token of a user, e.g. on account
// deactivation.
func (m *RefreshTokenManager) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	return repository.GetDB(ctx, m.db).Model(&model.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true).Error
}
