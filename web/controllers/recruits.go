package controllers

import (
	"errors"
	"net/http"

	"teamline/genealogy"
	"teamline/logging"
	"teamline/monitoring"
	"teamline/recruit"
	"teamline/web/db"
	"teamline/web/email"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SubmitRecruit files a prospective recruit under an upline for decision.
func SubmitRecruit(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		UplineID uint   `json:"upline_id"` // defaults to the recruiter
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, _ := c.Get("user")
	userinfo := user.(db.User)

	uplineID := req.UplineID
	if uplineID == 0 {
		uplineID = userinfo.ID
	}

	rec, err := recruit.Submit(userinfo.ID, uplineID, req.Name, req.Email, req.Phone)
	if err != nil {
		if errors.Is(err, genealogy.ErrUplineNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Upline not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit recruit"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recruit": rec})
}

// PendingRecruits lists recruits waiting on the caller's decision.
func PendingRecruits(c *gin.Context) {
	user, _ := c.Get("user")
	userinfo := user.(db.User)

	var recruits []db.PendingRecruit
	if err := db.DB.Where("upline_id = ? AND status = ?", userinfo.ID, db.RecruitAwaitingUpline).
		Find(&recruits).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recruits"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recruits": recruits})
}

// UplineDecision records the upline's approve-with-side or decline.
func UplineDecision(c *gin.Context) {
	var req struct {
		RecruitID uint   `json:"recruit_id"`
		Approve   bool   `json:"approve"`
		Position  string `json:"position"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, _ := c.Get("user")
	userinfo := user.(db.User)

	err := recruit.UplineDecide(req.RecruitID, userinfo.ID, req.Approve, req.Position)
	switch {
	case errors.Is(err, recruit.ErrRecruitNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Recruit not found"})
	case errors.Is(err, recruit.ErrNotUpline):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, recruit.ErrInvalidTransition), errors.Is(err, recruit.ErrMissingPosition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record decision"})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Decision recorded"})
	}
}

// AdminListRecruits shows every pending recruit for the admin queue.
func AdminListRecruits(c *gin.Context) {
	status := c.Query("status")

	q := db.DB.Model(&db.PendingRecruit{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var recruits []db.PendingRecruit
	if err := q.Order("created_at").Find(&recruits).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recruits"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recruits": recruits})
}

// AdminApproveRecruit finalizes a recruit: creates the account, places it in
// the tree and mails the credentials.
func AdminApproveRecruit(c *gin.Context) {
	var req struct {
		RecruitID     uint `json:"recruit_id"`
		PackageAmount int  `json:"package_amount"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.PackageAmount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Package amount is required"})
		return
	}

	admin, _ := c.Get("user")
	adminInfo := admin.(db.User)

	newUser, tempPassword, err := recruit.AdminApprove(req.RecruitID, adminInfo.ID, req.PackageAmount)
	switch {
	case errors.Is(err, recruit.ErrRecruitNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Recruit not found"})
		return
	case errors.Is(err, recruit.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to approve recruit: " + err.Error()})
		return
	}

	monitoring.PlacementsTotal.Inc()
	logging.Info("recruit approved",
		zap.Uint("recruit_id", req.RecruitID),
		zap.Uint("user_id", newUser.ID),
		zap.String("position", newUser.Position))

	go func() {
		email.SendCredentialsEmail(newUser.Email, newUser.Name, tempPassword)
	}()

	c.JSON(http.StatusOK, gin.H{"user_id": newUser.ID})
}

// AdminRejectRecruit rejects a recruit from either waiting state.
func AdminRejectRecruit(c *gin.Context) {
	var req struct {
		RecruitID uint   `json:"recruit_id"`
		Reason    string `json:"reason"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	admin, _ := c.Get("user")
	adminInfo := admin.(db.User)

	err := recruit.Reject(req.RecruitID, adminInfo.ID, req.Reason)
	switch {
	case errors.Is(err, recruit.ErrRecruitNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Recruit not found"})
		return
	case errors.Is(err, recruit.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "Recruit is already resolved"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reject recruit"})
		return
	}

	var rec db.PendingRecruit
	if db.DB.First(&rec, req.RecruitID).Error == nil && rec.Email != "" {
		go func() {
			email.SendRejectionEmail(rec.Email, rec.Name, req.Reason)
		}()
	}

	c.JSON(http.StatusOK, gin.H{"message": "Recruit rejected"})
}
