package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"teamline/genealogy"
	"teamline/logging"
	"teamline/wallet"
	"teamline/web/db"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AdminDashboard returns the headline numbers for the admin overview page.
func AdminDashboard(c *gin.Context) {
	var stats struct {
		Users              int64 `json:"users"`
		PendingRecruits    int64 `json:"pending_recruits"`
		PendingKYC         int64 `json:"pending_kyc"`
		PendingWithdrawals int64 `json:"pending_withdrawals"`
		OpenTickets        int64 `json:"open_tickets"`
		TotalBV            int64 `json:"total_bv"`
		PurchasesToday     int64 `json:"purchases_today"`
	}

	db.DB.Model(&db.User{}).Count(&stats.Users)
	db.DB.Model(&db.PendingRecruit{}).
		Where("status IN ?", []string{db.RecruitAwaitingUpline, db.RecruitAwaitingAdmin}).
		Count(&stats.PendingRecruits)
	db.DB.Model(&db.KYCDocument{}).Where("status = ?", "pending").Count(&stats.PendingKYC)
	db.DB.Model(&db.WithdrawalRequest{}).Where("status = ?", db.WithdrawalPending).Count(&stats.PendingWithdrawals)
	db.DB.Model(&db.SupportTicket{}).Where("status = ?", "open").Count(&stats.OpenTickets)

	now := time.Now().Local()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	db.DB.Model(&db.Purchase{}).
		Where("status = ? AND created_at >= ?", db.PurchaseCompleted, midnight).
		Count(&stats.PurchasesToday)

	db.DB.Model(&db.Purchase{}).Where("status = ?", db.PurchaseCompleted).
		Select("COALESCE(SUM(total_bv), 0)").Scan(&stats.TotalBV)

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// SystemHealth reports host usage for the admin status page.
func SystemHealth(c *gin.Context) {
	cpuUsage, err := cpu.Percent(time.Second, false)
	if err != nil || len(cpuUsage) == 0 {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read CPU usage"})
		return
	}

	memInfo, err := mem.VirtualMemory()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read memory usage"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cpu_percent": cpuUsage[0],
		"mem_percent": memInfo.UsedPercent,
		"mem_total":   memInfo.Total,
		"mem_used":    memInfo.Used,
	})
}

// ReconcileUser audits a user's incremental BV counters and wallet balance
// against the recomputed values.
func ReconcileUser(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	var user db.User
	if err := db.DB.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	volume, err := genealogy.RecomputeVolume(db.DB, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to recompute volume"})
		return
	}

	storedBalance, computedBalance, err := wallet.Reconcile(db.DB, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reconcile wallet"})
		return
	}

	volumeOK := volume.TotalBV == user.TotalBV &&
		volume.LeftBV == user.LeftBV && volume.RightBV == user.RightBV
	balanceOK := storedBalance == computedBalance

	if !volumeOK || !balanceOK {
		logging.Warn("reconciliation drift",
			zap.Uint("user_id", user.ID),
			zap.Bool("volume_ok", volumeOK),
			zap.Bool("balance_ok", balanceOK))
	}

	c.JSON(http.StatusOK, gin.H{
		"volume_ok":  volumeOK,
		"balance_ok": balanceOK,
		"stored": gin.H{
			"total_bv": user.TotalBV,
			"left_bv":  user.LeftBV,
			"right_bv": user.RightBV,
			"balance":  storedBalance,
		},
		"computed": gin.H{
			"total_bv": volume.TotalBV,
			"left_bv":  volume.LeftBV,
			"right_bv": volume.RightBV,
			"balance":  computedBalance,
		},
	})
}

// AdminAdjustBalance credits or debits a wallet through the ledger, for
// manual corrections.
func AdminAdjustBalance(c *gin.Context) {
	var req struct {
		UserID uint   `json:"user_id"`
		Amount int    `json:"amount"` // signed
		Reason string `json:"reason"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.Reason == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Reason is required"})
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if req.Amount >= 0 {
			return wallet.Credit(tx, req.UserID, req.Amount, db.TxAdminAdjustment, req.Reason)
		}
		return wallet.Debit(tx, req.UserID, -req.Amount, db.TxAdminAdjustment, req.Reason)
	})
	switch {
	case errors.Is(err, wallet.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, wallet.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must not be zero"})
	case errors.Is(err, wallet.ErrInsufficientBalance):
		c.JSON(http.StatusConflict, gin.H{"error": "Adjustment would overdraw the wallet"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to adjust balance"})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Balance adjusted"})
	}
}

// AssignHiddenID sets the founder-only alias on a user.
func AssignHiddenID(c *gin.Context) {
	var req struct {
		UserID   uint   `json:"user_id"`
		HiddenID string `json:"hidden_id"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	result := db.DB.Model(&db.User{}).Where("id = ?", req.UserID).
		Update("hidden_id", req.HiddenID)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign hidden ID"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Hidden ID assigned"})
}

// PlacementOverride moves a childless user to an exact slot. Founder only.
func PlacementOverride(c *gin.Context) {
	var req struct {
		UserID      uint   `json:"user_id"`
		NewParentID uint   `json:"new_parent_id"`
		Position    string `json:"position"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	err := genealogy.MoveLeaf(req.UserID, req.NewParentID, req.Position)
	switch {
	case errors.Is(err, genealogy.ErrUserNotFound), errors.Is(err, genealogy.ErrUplineNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, genealogy.ErrNotLeaf),
		errors.Is(err, genealogy.ErrSlotOccupied),
		errors.Is(err, genealogy.ErrMoveIntoSelf),
		errors.Is(err, genealogy.ErrInvalidSide):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to move user"})
	default:
		logging.Info("placement override",
			zap.Uint("user_id", req.UserID),
			zap.Uint("new_parent_id", req.NewParentID),
			zap.String("position", req.Position))
		c.JSON(http.StatusOK, gin.H{"message": "User moved"})
	}
}
