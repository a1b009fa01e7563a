package controllers

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"teamline/utils"
	"teamline/web/db"
	"teamline/web/email"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"
)

const referralLinkTTL = 7 * 24 * time.Hour

// GenerateReferralLink creates a one-time registration token bound to the
// caller and a placement side, optionally emailing the invitation.
func GenerateReferralLink(c *gin.Context) {
	var req struct {
		Position string `json:"position"`
		Email    string `json:"email"` // optional: send the invitation
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if req.Position != db.PositionLeft && req.Position != db.PositionRight {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Position must be left or right"})
		return
	}

	user, _ := c.Get("user")
	userinfo := user.(db.User)

	link := db.ReferralLink{
		Token:       utils.GenerateUUID(),
		GeneratedBy: userinfo.ID,
		Position:    req.Position,
		ExpiresAt:   time.Now().Add(referralLinkTTL),
	}
	if err := db.DB.Create(&link).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create referral link"})
		return
	}

	url := fmt.Sprintf("http://%s/register?token=%s", os.Getenv("Web_Host"), link.Token)

	if req.Email != "" {
		go func() {
			email.SendInvitationEmail(req.Email, userinfo.Name, url)
		}()
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      link.Token,
		"url":        url,
		"expires_at": link.ExpiresAt.Format(time.RFC3339),
	})
}

// ValidateReferralLink tells the registration page whether the token is
// still usable, without consuming it.
func ValidateReferralLink(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing token"})
		return
	}

	var link db.ReferralLink
	if err := db.DB.Where("token = ?", token).First(&link).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Referral link not found"})
		return
	}

	if link.UsedAt != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Referral link already used"})
		return
	}
	if time.Now().After(link.ExpiresAt) {
		c.JSON(http.StatusConflict, gin.H{"error": "Referral link expired"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"valid": true, "position": link.Position})
}

// ReferralQR renders the registration link as a PNG for sharing.
func ReferralQR(c *gin.Context) {
	token := c.Param("token")

	var link db.ReferralLink
	if err := db.DB.Where("token = ?", token).First(&link).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Referral link not found"})
		return
	}

	url := fmt.Sprintf("http://%s/register?token=%s", os.Getenv("Web_Host"), link.Token)
	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate QR code"})
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}
