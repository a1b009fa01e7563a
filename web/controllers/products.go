package controllers

import (
	"fmt"
	"net/http"

	"teamline/genealogy"
	"teamline/logging"
	"teamline/monitoring"
	"teamline/wallet"
	"teamline/web/db"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// sponsor commission on each completed purchase, percent of the price
const sponsorCommissionPercent = 10

func ListProducts(c *gin.Context) {
	var products []db.Product
	if err := db.DB.Where("active = ?", true).Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// AdminCreateProduct adds a product to the catalog.
func AdminCreateProduct(c *gin.Context) {
	var req struct {
		Name  string `json:"name"`
		Price int    `json:"price"`
		BV    int    `json:"bv"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.Name == "" || req.Price <= 0 || req.BV < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name, positive price and non-negative BV are required"})
		return
	}

	product := db.Product{Name: req.Name, Price: req.Price, BV: req.BV, Active: true}
	if err := db.DB.Create(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// AdminUpdateProduct edits price/BV or retires a product.
func AdminUpdateProduct(c *gin.Context) {
	id := c.Param("id")

	var product db.Product
	if err := db.DB.First(&product, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	var req struct {
		Name   *string `json:"name"`
		Price  *int    `json:"price"`
		BV     *int    `json:"bv"`
		Active *bool   `json:"active"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.BV != nil {
		product.BV = *req.BV
	}
	if req.Active != nil {
		product.Active = *req.Active
	}

	if err := db.DB.Save(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// PurchaseProduct records a completed purchase, pushes its BV up the
// ancestor chain, credits the sponsor commission and re-evaluates the rank
// of everyone whose team volume changed — all in one transaction.
func PurchaseProduct(c *gin.Context) {
	var req struct {
		ProductID uint `json:"product_id"`
		Quantity  int  `json:"quantity"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.Quantity <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantity must be positive"})
		return
	}

	user, _ := c.Get("user")
	userinfo := user.(db.User)

	var product db.Product
	if err := db.DB.First(&product, req.ProductID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	if !product.Active {
		c.JSON(http.StatusConflict, gin.H{"error": "Product is no longer available"})
		return
	}

	totalBV := product.BV * req.Quantity

	var purchase db.Purchase
	var promotions []genealogy.RankResult

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		purchase = db.Purchase{
			UserID:    userinfo.ID,
			ProductID: product.ID,
			Quantity:  req.Quantity,
			TotalBV:   totalBV,
			Status:    db.PurchaseCompleted,
		}
		if err := tx.Create(&purchase).Error; err != nil {
			return err
		}

		affected, err := genealogy.ApplyPurchaseVolume(tx, userinfo.ID, totalBV)
		if err != nil {
			return err
		}

		if userinfo.SponsorID != nil {
			commission := product.Price * req.Quantity * sponsorCommissionPercent / 100
			if commission > 0 {
				ref := fmt.Sprintf("purchase:%d", purchase.ID)
				if err := wallet.Credit(tx, *userinfo.SponsorID, commission, db.TxPurchaseCommission, ref); err != nil {
					return err
				}
			}
		}

		for _, id := range affected {
			res, err := genealogy.EvaluateRank(tx, id)
			if err != nil {
				return err
			}
			if res.Eligible {
				promotions = append(promotions, res)
			}
		}

		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process purchase: " + err.Error()})
		return
	}

	for _, p := range promotions {
		monitoring.RankPromotionsTotal.WithLabelValues(p.NewRank).Inc()
		logging.Info("rank promotion",
			zap.String("rank", p.NewRank), zap.Int("team_bv", p.TeamBV))
	}

	c.JSON(http.StatusOK, gin.H{
		"purchase_id": purchase.ID,
		"total_bv":    totalBV,
		"promotions":  len(promotions),
	})
}

// MyPurchases lists the caller's purchase history.
func MyPurchases(c *gin.Context) {
	user, _ := c.Get("user")

	var purchases []db.Purchase
	if err := db.DB.Where("user_id = ?", user.(db.User).ID).
		Order("created_at desc").Find(&purchases).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch purchases"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"purchases": purchases})
}
