package scheduler

import (
	"log"
	"time"

	"gorm.io/gorm"

	"taportal_backend/internals/features/users/auth/model"
)

// CleanupBlacklist hard-deletes blacklist rows that expired more than ttlDays
// ago, in batches of 100. Returns how many rows went away.
func CleanupBlacklist(db *gorm.DB, ttlDays int, now time.Time) (int, error) {
	if ttlDays <= 0 {
		ttlDays = 7
	}
	deleteBefore := now.Add(-time.Duration(ttlDays) * 24 * time.Hour)

	total := 0
	for {
		var expired []model.TokenBlacklist
		if err := db.
			Where("expired_at < ?", deleteBefore).
			Limit(100).
			Find(&expired).Error; err != nil {
			log.Printf("[CLEANUP ERROR] load expired tokens: %v", err)
			return total, err
		}
		if len(expired) == 0 {
			break
		}
		if err := db.Unscoped().Delete(&expired).Error; err != nil {
			log.Printf("[CLEANUP ERROR] delete tokens: %v", err)
			return total, err
		}
		total += len(expired)
		if len(expired) < 100 {
			break
		}
	}
	if total > 0 {
		log.Printf("[CLEANUP] %d expired tokens removed", total)
	} else {
		log.Println("[CLEANUP] nothing to remove from token_blacklist")
	}
	return total, nil
}
