package genealogy

import (
	"errors"

	"teamline/web/db"

	"gorm.io/gorm"
)

// ApplyPurchaseVolume adds delta BV to the user and propagates it up the
// ancestor chain, crediting each ancestor's left or right leg according to
// which child the path hangs on. Returns the ids of every user whose volume
// changed, purchaser first. Must run inside the purchase transaction.
func ApplyPurchaseVolume(tx *gorm.DB, userID uint, delta int) ([]uint, error) {
	var user db.User
	if err := db.ForUpdate(tx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	user.TotalBV += delta
	if err := tx.Save(&user).Error; err != nil {
		return nil, err
	}

	ancestors, err := propagate(tx, user.ParentID, user.Position, delta)
	if err != nil {
		return nil, err
	}

	return append([]uint{user.ID}, ancestors...), nil
}

// propagate applies a BV delta to every ancestor starting at parentID, the
// child hanging on childPos.
func propagate(tx *gorm.DB, parentID *uint, childPos string, delta int) ([]uint, error) {
	var affected []uint

	for parentID != nil {
		var parent db.User
		if err := db.ForUpdate(tx).First(&parent, *parentID).Error; err != nil {
			return nil, err
		}

		parent.TotalBV += delta
		if childPos == db.PositionRight {
			parent.RightBV += delta
		} else {
			parent.LeftBV += delta
		}
		if err := tx.Save(&parent).Error; err != nil {
			return nil, err
		}

		affected = append(affected, parent.ID)
		childPos = parent.Position
		parentID = parent.ParentID
	}

	return affected, nil
}

type Volume struct {
	TotalBV int
	LeftBV  int
	RightBV int
}

// RecomputeVolume walks the whole subtree and rebuilds the volume from
// completed purchases. The incremental counters are the source of truth in
// normal operation; this is the audit path used by reconciliation.
func RecomputeVolume(gdb *gorm.DB, userID uint) (Volume, error) {
	var user db.User
	if err := gdb.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Volume{}, ErrUserNotFound
		}
		return Volume{}, err
	}

	own, err := ownBV(gdb, userID)
	if err != nil {
		return Volume{}, err
	}

	var left, right int
	if user.LeftChildID != nil {
		sub, err := RecomputeVolume(gdb, *user.LeftChildID)
		if err != nil {
			return Volume{}, err
		}
		left = sub.TotalBV
	}
	if user.RightChildID != nil {
		sub, err := RecomputeVolume(gdb, *user.RightChildID)
		if err != nil {
			return Volume{}, err
		}
		right = sub.TotalBV
	}

	return Volume{TotalBV: own + left + right, LeftBV: left, RightBV: right}, nil
}

func ownBV(gdb *gorm.DB, userID uint) (int, error) {
	var own int
	err := gdb.Model(&db.Purchase{}).
		Where("user_id = ? AND status = ?", userID, db.PurchaseCompleted).
		Select("COALESCE(SUM(total_bv), 0)").
		Scan(&own).Error
	return own, err
}
