package genealogy

import (
	"errors"

	"teamline/web/db"

	"gorm.io/gorm"
)

var (
	ErrNotLeaf      = errors.New("only a node without children can be moved")
	ErrSlotOccupied = errors.New("target slot is already occupied")
	ErrMoveIntoSelf = errors.New("cannot place a node under itself")
)

// MoveLeaf re-parents a childless node to an exact slot, carrying its own BV
// out of the old ancestor chain and into the new one. Founder override; no
// spillover walk, the slot must be free.
func MoveLeaf(nodeID, newParentID uint, side string) error {
	return db.DB.Transaction(func(tx *gorm.DB) error {
		if side != db.PositionLeft && side != db.PositionRight {
			return ErrInvalidSide
		}
		if nodeID == newParentID {
			return ErrMoveIntoSelf
		}

		var node db.User
		if err := db.ForUpdate(tx).First(&node, nodeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if node.LeftChildID != nil || node.RightChildID != nil {
			return ErrNotLeaf
		}

		// detach first so a move within the same parent sees its own freed
		// slot; a failure later rolls the whole transaction back
		if node.ParentID != nil {
			var oldParent db.User
			if err := db.ForUpdate(tx).First(&oldParent, *node.ParentID).Error; err != nil {
				return err
			}
			if node.Position == db.PositionRight {
				oldParent.RightChildID = nil
			} else {
				oldParent.LeftChildID = nil
			}
			if err := tx.Save(&oldParent).Error; err != nil {
				return err
			}
			if _, err := propagate(tx, node.ParentID, node.Position, -node.TotalBV); err != nil {
				return err
			}
		}

		var target db.User
		if err := db.ForUpdate(tx).First(&target, newParentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUplineNotFound
			}
			return err
		}
		if side == db.PositionLeft && target.LeftChildID != nil ||
			side == db.PositionRight && target.RightChildID != nil {
			return ErrSlotOccupied
		}

		if side == db.PositionLeft {
			target.LeftChildID = &node.ID
		} else {
			target.RightChildID = &node.ID
		}
		if err := tx.Save(&target).Error; err != nil {
			return err
		}

		node.ParentID = &target.ID
		node.Position = side
		if err := tx.Save(&node).Error; err != nil {
			return err
		}

		_, err := propagate(tx, node.ParentID, side, node.TotalBV)
		return err
	})
}
