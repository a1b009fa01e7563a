package referral

import (
	"errors"
	"time"

	"teamline/web/db"

	"gorm.io/gorm"
)

var (
	ErrLinkNotFound = errors.New("referral link not found")
	ErrLinkUsed     = errors.New("referral link already used")
	ErrLinkExpired  = errors.New("referral link expired")
)

// ConsumeTx locks the link by token, rejects used or expired ones and stamps
// it used, all inside the caller's transaction. A link is claimed at most
// once; a second caller gets ErrLinkUsed. The registered account is recorded
// afterwards with BindUserTx, once it exists.
func ConsumeTx(tx *gorm.DB, token string) (db.ReferralLink, error) {
	var link db.ReferralLink
	if err := db.ForUpdate(tx).Where("token = ?", token).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return link, ErrLinkNotFound
		}
		return link, err
	}

	if link.UsedAt != nil {
		return link, ErrLinkUsed
	}
	if time.Now().After(link.ExpiresAt) {
		return link, ErrLinkExpired
	}

	now := time.Now()
	link.UsedAt = &now
	if err := tx.Save(&link).Error; err != nil {
		return link, err
	}
	return link, nil
}

// BindUserTx records which user a consumed link registered.
func BindUserTx(tx *gorm.DB, linkID, userID uint) error {
	return tx.Model(&db.ReferralLink{}).Where("id = ?", linkID).
		Update("used_by", userID).Error
}
