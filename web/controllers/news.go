package controllers

import (
	"net/http"
	"time"

	"teamline/web/db"

	"github.com/gin-gonic/gin"
)

func ListNews(c *gin.Context) {
	var posts []db.NewsPost
	if err := db.DB.Order("created_at desc").Limit(50).Find(&posts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch news"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"news": posts})
}

func AdminPublishNews(c *gin.Context) {
	var req struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}

	admin, _ := c.Get("user")

	post := db.NewsPost{
		Title:       req.Title,
		Body:        req.Body,
		PublishedBy: admin.(db.User).ID,
	}
	if err := db.DB.Create(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to publish news"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": post})
}

func ListAchievers(c *gin.Context) {
	var achievers []db.Achiever
	if err := db.DB.Order("created_at desc").Find(&achievers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch achievers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"achievers": achievers})
}

func AdminAddAchiever(c *gin.Context) {
	var req struct {
		UserID uint   `json:"user_id"`
		Rank   string `json:"rank"`
		Note   string `json:"note"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var user db.User
	if err := db.DB.First(&user, req.UserID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	achiever := db.Achiever{UserID: req.UserID, Rank: req.Rank, Note: req.Note}
	if err := db.DB.Create(&achiever).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add achiever"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"achiever": achiever})
}

func MyNotifications(c *gin.Context) {
	user, _ := c.Get("user")

	var notes []db.Notification
	if err := db.DB.Where("user_id = ?", user.(db.User).ID).
		Order("created_at desc").Limit(100).Find(&notes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notes})
}

func MarkNotificationRead(c *gin.Context) {
	id := c.Param("id")
	user, _ := c.Get("user")

	var note db.Notification
	if err := db.DB.Where("id = ? AND user_id = ?", id, user.(db.User).ID).First(&note).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}

	now := time.Now()
	note.ReadAt = &now
	if err := db.DB.Save(&note).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification"})
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}
