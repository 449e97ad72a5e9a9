package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"gorm.io/gorm"
)

// TokenBlacklist holds revoked access tokens until they would have expired
// anyway. Rows are written by the auth service; this backend only reads them
// and prunes old ones.
type TokenBlacklist struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	TokenHash string         `gorm:"column:token_hash;size:64;not null;uniqueIndex" json:"token_hash"`
	ExpiredAt time.Time      `gorm:"column:expired_at;index" json:"expired_at"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (TokenBlacklist) TableName() string {
	return "token_blacklist"
}

// HashToken is the lookup key of a raw bearer token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// IsBlacklisted reports whether raw was revoked.
func IsBlacklisted(db *gorm.DB, raw string) (bool, error) {
	var n int64
	err := db.Model(&TokenBlacklist{}).
		Where("token_hash = ?", HashToken(raw)).
		Limit(1).
		Count(&n).Error
	return n > 0, err
}
