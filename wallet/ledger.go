package wallet

import (
	"errors"

	"teamline/web/db"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
)

// Credit locks the user row, appends a ledger transaction and updates the
// running balance, all inside the caller's transaction. The amount must be
// strictly positive.
func Credit(tx *gorm.DB, userID uint, amount int, kind, reference string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return apply(tx, userID, amount, kind, reference)
}

// Debit is Credit with the sign flipped; it fails if the balance would go
// negative.
func Debit(tx *gorm.DB, userID uint, amount int, kind, reference string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return apply(tx, userID, -amount, kind, reference)
}

// apply is the signed path; only Credit and Debit reach it, so the sign is
// already validated.
func apply(tx *gorm.DB, userID uint, amount int, kind, reference string) error {
	var user db.User
	if err := db.ForUpdate(tx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	newBalance := user.Balance + amount
	if newBalance < 0 {
		return ErrInsufficientBalance
	}

	entry := db.Transaction{
		UserID:       userID,
		Amount:       amount,
		Kind:         kind,
		Reference:    reference,
		BalanceAfter: newBalance,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return err
	}

	return tx.Model(&db.User{}).Where("id = ?", userID).
		Update("balance", newBalance).Error
}

// Reconcile recomputes the balance from the ledger and reports drift against
// the stored running balance.
func Reconcile(gdb *gorm.DB, userID uint) (stored, computed int, err error) {
	var user db.User
	if err = gdb.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = ErrUserNotFound
		}
		return
	}
	stored = user.Balance

	err = gdb.Model(&db.Transaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&computed).Error
	return
}
