package controllers

import (
	"net/http"
	"time"

	"teamline/web/db"

	"github.com/gin-gonic/gin"
)

// SubmitKYC records a document submission. The file itself lives in object
// storage; only the URL is kept here.
func SubmitKYC(c *gin.Context) {
	var req struct {
		DocType string `json:"doc_type"`
		FileURL string `json:"file_url"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.DocType == "" || req.FileURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Document type and file URL are required"})
		return
	}

	user, _ := c.Get("user")
	userID := user.(db.User).ID

	doc := db.KYCDocument{
		UserID:  &userID,
		DocType: req.DocType,
		FileURL: req.FileURL,
		Status:  "pending",
	}
	if err := db.DB.Create(&doc).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit document"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"document": doc})
}

// StageRecruitKYC attaches a document to a pending recruit; approval moves
// it to the created user.
func StageRecruitKYC(c *gin.Context) {
	var req struct {
		RecruitID uint   `json:"recruit_id"`
		DocType   string `json:"doc_type"`
		FileURL   string `json:"file_url"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var recruit db.PendingRecruit
	if err := db.DB.First(&recruit, req.RecruitID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Recruit not found"})
		return
	}

	user, _ := c.Get("user")
	if recruit.RecruiterID != user.(db.User).ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the recruiter can attach documents"})
		return
	}

	doc := db.KYCDocument{
		PendingRecruitID: &recruit.ID,
		DocType:          req.DocType,
		FileURL:          req.FileURL,
		Status:           "pending",
	}
	if err := db.DB.Create(&doc).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to stage document"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"document": doc})
}

func MyKYC(c *gin.Context) {
	user, _ := c.Get("user")

	var docs []db.KYCDocument
	if err := db.DB.Where("user_id = ?", user.(db.User).ID).Find(&docs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch documents"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

func AdminListKYC(c *gin.Context) {
	status := c.Query("status")
	if status == "" {
		status = "pending"
	}

	var docs []db.KYCDocument
	if err := db.DB.Where("status = ?", status).Order("created_at").Find(&docs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch documents"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// AdminReviewKYC approves or rejects a submitted document.
func AdminReviewKYC(c *gin.Context) {
	var req struct {
		DocumentID uint   `json:"document_id"`
		Approve    bool   `json:"approve"`
		Note       string `json:"note"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var doc db.KYCDocument
	if err := db.DB.First(&doc, req.DocumentID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}
	if doc.Status != "pending" {
		c.JSON(http.StatusConflict, gin.H{"error": "Document is already reviewed"})
		return
	}

	admin, _ := c.Get("user")
	adminID := admin.(db.User).ID
	now := time.Now()

	doc.ReviewedBy = &adminID
	doc.ReviewedAt = &now
	doc.ReviewNote = req.Note
	if req.Approve {
		doc.Status = "approved"
	} else {
		doc.Status = "rejected"
	}

	if err := db.DB.Save(&doc).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to review document"})
		return
	}

	if doc.UserID != nil {
		note := db.Notification{
			UserID: *doc.UserID,
			Title:  "KYC document " + doc.Status,
			Body:   req.Note,
		}
		db.DB.Create(&note)
	}

	c.JSON(http.StatusOK, gin.H{"document": doc})
}
