package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"teamline/cheque"
	"teamline/logging"
	"teamline/wallet"
	"teamline/web/db"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Cheques allocates cheque numbers for withdrawal payouts; main restores its
// state from the database on startup.
var Cheques = cheque.NewAllocator()

const chequeSeries = "TL"
const chequeSeriesStart = 100001

func Wallet(c *gin.Context) {
	user, _ := c.Get("user")
	userinfo := user.(db.User)

	c.JSON(http.StatusOK, gin.H{
		"balance": userinfo.Balance,
	})
}

func Transactions(c *gin.Context) {
	user, _ := c.Get("user")

	var transactions []db.Transaction
	if err := db.DB.Where("user_id = ?", user.(db.User).ID).
		Order("created_at desc").Find(&transactions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}

// RequestWithdrawal files a withdrawal for admin review. The balance is only
// debited on approval.
func RequestWithdrawal(c *gin.Context) {
	var req struct {
		Amount      int    `json:"amount"`
		Method      string `json:"method"` // bank or cheque
		BankAccount string `json:"bank_account"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must be positive"})
		return
	}
	if req.Method != "bank" && req.Method != "cheque" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Method must be bank or cheque"})
		return
	}

	user, _ := c.Get("user")
	userinfo := user.(db.User)

	if req.Amount > userinfo.Balance {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount exceeds wallet balance"})
		return
	}

	withdrawal := db.WithdrawalRequest{
		UserID:      userinfo.ID,
		Amount:      req.Amount,
		Method:      req.Method,
		BankAccount: req.BankAccount,
		Status:      db.WithdrawalPending,
	}
	if err := db.DB.Create(&withdrawal).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create withdrawal request"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"withdrawal": withdrawal})
}

func MyWithdrawals(c *gin.Context) {
	user, _ := c.Get("user")

	var withdrawals []db.WithdrawalRequest
	if err := db.DB.Where("user_id = ?", user.(db.User).ID).
		Order("created_at desc").Find(&withdrawals).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch withdrawals"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"withdrawals": withdrawals})
}

func AdminListWithdrawals(c *gin.Context) {
	status := c.Query("status")
	if status == "" {
		status = db.WithdrawalPending
	}

	var withdrawals []db.WithdrawalRequest
	if err := db.DB.Where("status = ?", status).Order("created_at").Find(&withdrawals).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch withdrawals"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"withdrawals": withdrawals})
}

// AdminReviewWithdrawal approves or rejects a pending withdrawal. Approval
// debits the wallet; cheque payouts also get a cheque number from the
// allocator and a cheques row.
func AdminReviewWithdrawal(c *gin.Context) {
	var req struct {
		WithdrawalID uint   `json:"withdrawal_id"`
		Approve      bool   `json:"approve"`
		Note         string `json:"note"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	admin, _ := c.Get("user")
	adminInfo := admin.(db.User)

	var chequeNumber int
	chequeAllocated := false

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var withdrawal db.WithdrawalRequest
		if err := db.ForUpdate(tx).First(&withdrawal, req.WithdrawalID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("withdrawal not found")
			}
			return err
		}
		if withdrawal.Status != db.WithdrawalPending {
			return errors.New("withdrawal is already resolved")
		}

		now := time.Now()
		withdrawal.ReviewedBy = &adminInfo.ID
		withdrawal.ReviewedAt = &now
		withdrawal.ReviewNote = req.Note

		if !req.Approve {
			withdrawal.Status = db.WithdrawalRejected
			return tx.Save(&withdrawal).Error
		}

		ref := fmt.Sprintf("withdrawal:%d", withdrawal.ID)
		if err := wallet.Debit(tx, withdrawal.UserID, withdrawal.Amount, db.TxWithdrawal, ref); err != nil {
			return err
		}

		withdrawal.Status = db.WithdrawalApproved

		if withdrawal.Method == "cheque" {
			chequeNumber = Cheques.Allocate(chequeSeries, chequeSeriesStart)
			chequeAllocated = true

			chq := db.Cheque{
				Series:       chequeSeries,
				Number:       chequeNumber,
				WithdrawalID: withdrawal.ID,
				IssuedBy:     adminInfo.ID,
			}
			if err := tx.Create(&chq).Error; err != nil {
				return err
			}
			withdrawal.ChequeID = &chq.ID
			withdrawal.Status = db.WithdrawalPaid
		}

		return tx.Save(&withdrawal).Error
	})
	if err != nil {
		if chequeAllocated {
			Cheques.Release(chequeSeries, chequeNumber)
		}
		if errors.Is(err, wallet.ErrInsufficientBalance) {
			c.JSON(http.StatusConflict, gin.H{"error": "User balance no longer covers the withdrawal"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	logging.Info("withdrawal reviewed",
		zap.Uint("withdrawal_id", req.WithdrawalID),
		zap.Bool("approved", req.Approve),
		zap.Uint("admin_id", adminInfo.ID))

	resp := gin.H{"message": "Withdrawal reviewed"}
	if chequeAllocated {
		resp["cheque_number"] = fmt.Sprintf("%s-%d", chequeSeries, chequeNumber)
	}
	c.JSON(http.StatusOK, resp)
}
