package genealogy

import (
	"errors"
	"fmt"

	"teamline/web/db"

	"gorm.io/gorm"
)

var (
	ErrUplineNotFound = errors.New("upline not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrInvalidSide    = errors.New("side must be left or right")
	ErrAlreadyPlaced  = errors.New("user is already placed in the tree")
)

// PlaceUser attaches newUserID under uplineID on the requested side. If the
// direct slot is taken it descends along that side only (spillover) until a
// node with a free slot is found. Runs in its own transaction.
func PlaceUser(newUserID, uplineID uint, side string) error {
	return db.DB.Transaction(func(tx *gorm.DB) error {
		return PlaceUserTx(tx, newUserID, uplineID, side)
	})
}

// PlaceUserTx is PlaceUser inside a caller-managed transaction. Every node
// on the walk is read under a row lock so two concurrent placements cannot
// claim the same slot.
func PlaceUserTx(tx *gorm.DB, newUserID, uplineID uint, side string) error {
	if side != db.PositionLeft && side != db.PositionRight {
		return ErrInvalidSide
	}

	var newUser db.User
	if err := db.ForUpdate(tx).First(&newUser, newUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if newUser.ParentID != nil {
		return ErrAlreadyPlaced
	}

	currentID := uplineID
	for {
		var node db.User
		if err := db.ForUpdate(tx).First(&node, currentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if currentID == uplineID {
					return ErrUplineNotFound
				}
				return fmt.Errorf("tree is inconsistent: child %d missing", currentID)
			}
			return err
		}

		slot := node.LeftChildID
		if side == db.PositionRight {
			slot = node.RightChildID
		}

		if slot == nil {
			if side == db.PositionLeft {
				node.LeftChildID = &newUser.ID
			} else {
				node.RightChildID = &newUser.ID
			}
			if err := tx.Save(&node).Error; err != nil {
				return err
			}

			newUser.ParentID = &node.ID
			newUser.Position = side
			return tx.Save(&newUser).Error
		}

		currentID = *slot
	}
}
