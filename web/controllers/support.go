package controllers

import (
	"net/http"
	"time"

	"teamline/web/db"

	"github.com/gin-gonic/gin"
)

func CreateSupportTicket(c *gin.Context) {
	var req struct {
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.Subject == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Subject is required"})
		return
	}

	user, _ := c.Get("user")

	ticket := db.SupportTicket{
		UserID:  user.(db.User).ID,
		Subject: req.Subject,
		Body:    req.Body,
		Status:  "open",
	}
	if err := db.DB.Create(&ticket).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create ticket"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ticket": ticket})
}

func MySupportTickets(c *gin.Context) {
	user, _ := c.Get("user")

	var tickets []db.SupportTicket
	if err := db.DB.Where("user_id = ?", user.(db.User).ID).
		Order("created_at desc").Find(&tickets).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tickets"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}

func AdminListSupportTickets(c *gin.Context) {
	status := c.Query("status")
	if status == "" {
		status = "open"
	}

	var tickets []db.SupportTicket
	if err := db.DB.Where("status = ?", status).Order("created_at").Find(&tickets).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tickets"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}

// AdminReplySupportTicket records a reply and moves the ticket forward.
func AdminReplySupportTicket(c *gin.Context) {
	var req struct {
		TicketID uint   `json:"ticket_id"`
		Reply    string `json:"reply"`
		Close    bool   `json:"close"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var ticket db.SupportTicket
	if err := db.DB.First(&ticket, req.TicketID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ticket not found"})
		return
	}
	if ticket.Status == "closed" {
		c.JSON(http.StatusConflict, gin.H{"error": "Ticket is already closed"})
		return
	}

	admin, _ := c.Get("user")
	adminID := admin.(db.User).ID

	ticket.Reply = req.Reply
	ticket.AdminID = &adminID
	if req.Close {
		ticket.Status = "closed"
	} else {
		ticket.Status = "in_progress"
	}

	if err := db.DB.Save(&ticket).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update ticket"})
		return
	}

	note := db.Notification{
		UserID: ticket.UserID,
		Title:  "Support ticket update",
		Body:   req.Reply,
	}
	db.DB.Create(&note)

	c.JSON(http.StatusOK, gin.H{"ticket": ticket})
}

func CreateFranchiseRequest(c *gin.Context) {
	var req struct {
		City    string `json:"city"`
		Message string `json:"message"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.City == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "City is required"})
		return
	}

	user, _ := c.Get("user")

	fr := db.FranchiseRequest{
		UserID:  user.(db.User).ID,
		City:    req.City,
		Message: req.Message,
		Status:  "pending",
	}
	if err := db.DB.Create(&fr).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create franchise request"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": fr})
}

func AdminReviewFranchise(c *gin.Context) {
	var req struct {
		RequestID uint   `json:"request_id"`
		Approve   bool   `json:"approve"`
		Note      string `json:"note"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var fr db.FranchiseRequest
	if err := db.DB.First(&fr, req.RequestID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Franchise request not found"})
		return
	}
	if fr.Status != "pending" {
		c.JSON(http.StatusConflict, gin.H{"error": "Franchise request is already resolved"})
		return
	}

	admin, _ := c.Get("user")
	adminID := admin.(db.User).ID
	now := time.Now()

	fr.ReviewedBy = &adminID
	fr.ReviewedAt = &now
	fr.ReviewNote = req.Note
	if req.Approve {
		fr.Status = "approved"
	} else {
		fr.Status = "rejected"
	}

	if err := db.DB.Save(&fr).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to review franchise request"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": fr})
}
