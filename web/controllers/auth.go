package controllers

import (
	"errors"
	"net/http"
	"os"
	"time"

	"teamline/genealogy"
	"teamline/logging"
	"teamline/monitoring"
	"teamline/referral"
	"teamline/utils"
	"teamline/web/db"
	"teamline/web/email"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Signup registers a user through a one-time referral link and places them
// in the tree on the side the link carries.
func Signup(c *gin.Context) {
	var body struct {
		Token    string `json:"token"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}

	if c.Bind(&body) != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to read body",
		})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), 10)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to hash password.",
		})
		return
	}

	var user db.User

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		link, err := referral.ConsumeTx(tx, body.Token)
		if err != nil {
			return err
		}

		user = db.User{
			Email:       body.Email,
			Password:    string(hash),
			Name:        body.Name,
			Role:        db.RoleUser,
			Status:      "active",
			SponsorID:   &link.GeneratedBy,
			IsVerified:  false,
			VerifyToken: utils.GenerateUUID(),
			TokenExpiry: time.Now().Add(24 * time.Hour),
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		if err := genealogy.PlaceUserTx(tx, user.ID, link.GeneratedBy, link.Position); err != nil {
			return err
		}

		return referral.BindUserTx(tx, link.ID, user.ID)
	})
	switch {
	case errors.Is(err, referral.ErrLinkNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case errors.Is(err, referral.ErrLinkUsed), errors.Is(err, referral.ErrLinkExpired):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to create user: " + err.Error(),
		})
		return
	}

	monitoring.PlacementsTotal.Inc()
	logging.Info("user signed up via referral link",
		zap.Uint("user_id", user.ID), zap.String("position", user.Position))

	go func() {
		email.SendVerificationEmail(user.Email, user.VerifyToken)
	}()

	c.JSON(http.StatusOK, gin.H{})
}

func Login(c *gin.Context) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if c.Bind(&body) != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to read body",
		})
		return
	}

	var user db.User
	db.DB.First(&user, "email = ?", body.Email)
	if user.ID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid email or password",
		})
		return
	}

	if !user.IsVerified {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Email not verified, please click the link in the verification email",
		})
		return
	}

	err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(body.Password))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid email or password",
		})
		return
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user.ID,
		"exp": time.Now().Add(time.Hour * 24 * 30).Unix(),
	})

	tokenString, err := token.SignedString([]byte(os.Getenv("SECRET")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to create token",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": tokenString,
	})
}

func VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token is required"})
		return
	}

	var user db.User
	result := db.DB.First(&user, "verify_token = ?", token)
	if result.Error != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid token"})
		return
	}

	if user.TokenExpiry.Before(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token expired, please contact your sponsor for a new invitation"})
		return
	}

	user.IsVerified = true
	user.VerifyToken = ""
	db.DB.Save(&user)

	c.JSON(http.StatusOK, gin.H{"message": "Email verified, you can now log in"})
}

func User(c *gin.Context) {
	user, _ := c.Get("user")
	userinfo := user.(db.User)

	c.JSON(http.StatusOK, gin.H{
		"id":             userinfo.ID,
		"email":          userinfo.Email,
		"name":           userinfo.Name,
		"role":           userinfo.Role,
		"status":         userinfo.Status,
		"sponsor_id":     userinfo.SponsorID,
		"parent_id":      userinfo.ParentID,
		"position":       userinfo.Position,
		"package_amount": userinfo.PackageAmount,
		"total_bv":       userinfo.TotalBV,
		"left_bv":        userinfo.LeftBV,
		"right_bv":       userinfo.RightBV,
		"current_rank":   userinfo.CurrentRank,
		"balance":        userinfo.Balance,
	})
}

// ChangePassword lets an authenticated user rotate their password, checking
// the current one first.
func ChangePassword(c *gin.Context) {
	var body struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if c.Bind(&body) != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
		return
	}
	if len(body.NewPassword) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 8 characters"})
		return
	}

	user, _ := c.Get("user")
	userinfo := user.(db.User)

	if bcrypt.CompareHashAndPassword([]byte(userinfo.Password), []byte(body.OldPassword)) != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Current password is incorrect"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), 10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	if err := db.DB.Model(&db.User{}).Where("id = ?", userinfo.ID).
		Update("password", string(hash)).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

type treeNode struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	CurrentRank string    `json:"current_rank"`
	TotalBV     int       `json:"total_bv"`
	LeftBV      int       `json:"left_bv"`
	RightBV     int       `json:"right_bv"`
	Left        *treeNode `json:"left,omitempty"`
	Right       *treeNode `json:"right,omitempty"`
}

const maxTreeDepth = 6

// UserTree returns the caller's downline, capped at a few levels per request.
func UserTree(c *gin.Context) {
	user, _ := c.Get("user")
	userinfo := user.(db.User)

	root, err := buildTree(userinfo.ID, maxTreeDepth)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load tree"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tree": root})
}

func buildTree(userID uint, depth int) (*treeNode, error) {
	if depth == 0 {
		return nil, nil
	}

	var user db.User
	if err := db.DB.First(&user, userID).Error; err != nil {
		return nil, err
	}

	node := &treeNode{
		ID:          user.ID,
		Name:        user.Name,
		CurrentRank: user.CurrentRank,
		TotalBV:     user.TotalBV,
		LeftBV:      user.LeftBV,
		RightBV:     user.RightBV,
	}

	if user.LeftChildID != nil {
		left, err := buildTree(*user.LeftChildID, depth-1)
		if err != nil {
			return nil, err
		}
		node.Left = left
	}
	if user.RightChildID != nil {
		right, err := buildTree(*user.RightChildID, depth-1)
		if err != nil {
			return nil, err
		}
		node.Right = right
	}

	return node, nil
}
