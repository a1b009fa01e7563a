package main

import (
	"os"
	"time"

	"teamline/logging"
	"teamline/monitoring"
	"teamline/utils"
	"teamline/web/controllers"
	"teamline/web/db"
	"teamline/web/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func init() {
	utils.LoadEnv()
	db.Connect()
	db.Sync()
}

func main() {
	logging.Init(os.Getenv("ENV"), os.Getenv("LOG_LEVEL"))
	defer logging.Sync()

	if err := controllers.Cheques.RestoreFromDB(); err != nil {
		logging.Error("failed to restore cheque allocator")
		panic(err)
	}

	r := gin.Default()
	r.Use(cors.Default())
	r.Use(monitoring.Middleware())

	globalLimiter := middleware.NewRateLimiter(60, 15) // 60 requests/min/IP
	globalLimiter.StartCleanup(10 * time.Minute)
	r.Use(globalLimiter.Middleware())

	// scraped machine-to-machine, gated by the shared registration key
	r.GET("/metrics", middleware.AdminAuth, gin.WrapH(promhttp.Handler()))

	// public
	r.POST("/signup", controllers.Signup)
	r.GET("/verify", controllers.VerifyEmail)
	r.POST("/login", controllers.Login)
	r.GET("/referral/validate", controllers.ValidateReferralLink)
	r.GET("/news", controllers.ListNews)

	// authenticated
	auth := r.Group("/", middleware.RequireAuth)
	auth.GET("/user", controllers.User)
	auth.POST("/user/password", controllers.ChangePassword)
	auth.GET("/user/tree", controllers.UserTree)
	auth.GET("/wallet", controllers.Wallet)
	auth.GET("/wallet/transactions", controllers.Transactions)
	auth.POST("/wallet/withdraw", controllers.RequestWithdrawal)
	auth.GET("/wallet/withdrawals", controllers.MyWithdrawals)
	auth.GET("/products", controllers.ListProducts)
	auth.POST("/purchase", controllers.PurchaseProduct)
	auth.GET("/purchases", controllers.MyPurchases)
	auth.POST("/recruits", controllers.SubmitRecruit)
	auth.GET("/recruits/pending", controllers.PendingRecruits)
	auth.POST("/recruits/decision", controllers.UplineDecision)
	auth.POST("/recruits/kyc", controllers.StageRecruitKYC)
	auth.POST("/referral/generate", controllers.GenerateReferralLink)
	auth.GET("/referral/:token/qr", controllers.ReferralQR)
	auth.POST("/kyc", controllers.SubmitKYC)
	auth.GET("/kyc", controllers.MyKYC)
	auth.POST("/support", controllers.CreateSupportTicket)
	auth.GET("/support", controllers.MySupportTickets)
	auth.POST("/franchise", controllers.CreateFranchiseRequest)
	auth.GET("/achievers", controllers.ListAchievers)
	auth.GET("/notifications", controllers.MyNotifications)
	auth.POST("/notifications/:id/read", controllers.MarkNotificationRead)

	// admin
	admin := r.Group("/admin", middleware.RequireAuth, middleware.RequireAdmin)
	admin.GET("/dashboard", controllers.AdminDashboard)
	admin.GET("/health", controllers.SystemHealth)
	admin.GET("/reconcile/:id", controllers.ReconcileUser)
	admin.POST("/balance/adjust", controllers.AdminAdjustBalance)
	admin.GET("/recruits", controllers.AdminListRecruits)
	admin.POST("/recruits/approve", controllers.AdminApproveRecruit)
	admin.POST("/recruits/reject", controllers.AdminRejectRecruit)
	admin.GET("/kyc", controllers.AdminListKYC)
	admin.POST("/kyc/review", controllers.AdminReviewKYC)
	admin.GET("/withdrawals", controllers.AdminListWithdrawals)
	admin.POST("/withdrawals/review", controllers.AdminReviewWithdrawal)
	admin.POST("/products", controllers.AdminCreateProduct)
	admin.PUT("/products/:id", controllers.AdminUpdateProduct)
	admin.GET("/support", controllers.AdminListSupportTickets)
	admin.POST("/support/reply", controllers.AdminReplySupportTicket)
	admin.POST("/franchise/review", controllers.AdminReviewFranchise)
	admin.POST("/news", controllers.AdminPublishNews)
	admin.POST("/achievers", controllers.AdminAddAchiever)

	// founder
	founder := r.Group("/founder", middleware.RequireAuth, middleware.RequireFounder)
	founder.POST("/hiddenid", controllers.AssignHiddenID)
	founder.POST("/placement/override", controllers.PlacementOverride)

	r.Run()
}
