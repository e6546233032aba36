package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/retailpos/backoffice/internal/models"
)

func (r *GormRepo) CreateRefreshToken(ctx context.Context, t *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

// FindRefreshToken looks up a stored token by its value hash and owner.
func (r *GormRepo) FindRefreshToken(ctx context.Context, tokenHash string, userID uint) (*models.RefreshToken, error) {
	var token models.RefreshToken
	err := r.DB.WithContext(ctx).
		Where("token_hash = ? AND user_id = ?", tokenHash, userID).
		First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func consumeRefreshToken(tx *gorm.DB, id uint) error {
	// Conditional update is the replay guard: of two concurrent exchanges of
	// the same token, exactly one flips used and the other sees zero rows.
	res := tx.Model(&models.RefreshToken{}).
		Where("id = ? AND used = ? AND revoked = ?", id, false, false).
		Update("used", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTokenConsumed
	}
	return nil
}

// RotateRefreshToken marks the old token used and persists its replacement
// as one transaction, so a double-submit cannot yield two valid pairs.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldID uint, next *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := consumeRefreshToken(tx, oldID); err != nil {
			return err
		}
		return tx.Create(next).Error
	})
}

// RevokeAllForUser revokes every outstanding token of the user. Idempotent.
func (r *GormRepo) RevokeAllForUser(ctx context.Context, userID uint) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND used = ? AND revoked = ? AND expires_at > ?",
			userID, false, false, time.Now().UTC()).
		Update("revoked", true).Error
}

// IsJTIRevoked reports whether any refresh token tied to the given access
// token id has been used or revoked. Supports access-token blacklisting.
func (r *GormRepo) IsJTIRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("jti = ? AND (used = ? OR revoked = ?)", jti, true, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
