package db

import (
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var DB *gorm.DB

func Connect() {
	var err error

	dsn := os.Getenv("DB")

	DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		panic(err)
	}
}

func Sync() {
	err := DB.AutoMigrate(
		&User{},
		&PendingRecruit{},
		&ReferralLink{},
		&Transaction{},
		&KYCDocument{},
		&WithdrawalRequest{},
		&Cheque{},
		&Product{},
		&Purchase{},
		&RankAchievement{},
		&FranchiseRequest{},
		&SupportTicket{},
		&Notification{},
		&NewsPost{},
		&Achiever{},
	)
	if err != nil {
		panic(err)
	}
}

// ForUpdate applies a SELECT ... FOR UPDATE row lock. sqlite has no row
// locks; its single writer already serializes the transaction.
func ForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
