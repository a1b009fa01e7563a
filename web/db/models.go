package db

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser    = "user"
	RoleAdmin   = "admin"
	RoleFounder = "founder"
)

const (
	PositionLeft  = "left"
	PositionRight = "right"
)

type User struct {
	gorm.Model
	Email    string `gorm:"unique"`
	Password string
	Name     string
	Role     string `gorm:"default:user"`
	Status   string `gorm:"default:active"` // active, inactive, pending

	SponsorID *uint // who recruited this user

	// binary tree pointers; ParentID must agree with the parent's child pointer
	ParentID     *uint
	LeftChildID  *uint
	RightChildID *uint
	Position     string // left or right under the parent

	PackageAmount int // in cents

	TotalBV int
	LeftBV  int
	RightBV int

	CurrentRank string `gorm:"default:Associate"`

	Balance int // in cents, equals the signed sum of the user's transactions

	HiddenID string // founder-assigned alias, hidden from normal tree views

	IsVerified  bool
	VerifyToken string
	TokenExpiry time.Time
}

const (
	RecruitAwaitingUpline = "awaiting_upline"
	RecruitAwaitingAdmin  = "awaiting_admin"
	RecruitApproved       = "approved"
	RecruitRejected       = "rejected"
)

type PendingRecruit struct {
	gorm.Model
	Email string
	Name  string
	Phone string

	RecruiterID uint
	UplineID    uint

	Status string `gorm:"default:awaiting_upline"`

	Position         string // chosen by the upline
	UplineDecision   string // approved or declined
	UplineDecisionAt *time.Time

	RejectReason string
	RejectedBy   *uint

	// set when the recruit is resolved; approved recruits keep the row
	// as an audit trail, linked to the created user
	ResolvedAt    *time.Time
	CreatedUserID *uint
}

type ReferralLink struct {
	gorm.Model
	Token       string `gorm:"unique"`
	GeneratedBy uint
	Position    string
	ExpiresAt   time.Time
	UsedAt      *time.Time
	UsedBy      *uint
}

const (
	TxPurchaseCommission = "purchase_commission"
	TxRankBonus          = "rank_bonus"
	TxWithdrawal         = "withdrawal"
	TxAdminAdjustment    = "admin_adjustment"
)

// Transaction is an append-only ledger row. Amount is signed: credits
// positive, debits negative.
type Transaction struct {
	gorm.Model
	UserID       uint `gorm:"index"`
	Amount       int
	Kind         string
	Reference    string
	BalanceAfter int
}

type KYCDocument struct {
	gorm.Model
	UserID           *uint // nil while the document is staged for a pending recruit
	PendingRecruitID *uint
	DocType          string
	FileURL          string
	Status           string `gorm:"default:pending"` // pending, approved, rejected
	ReviewedBy       *uint
	ReviewedAt       *time.Time
	ReviewNote       string
}

const (
	WithdrawalPending  = "pending"
	WithdrawalApproved = "approved"
	WithdrawalRejected = "rejected"
	WithdrawalPaid     = "paid"
)

type WithdrawalRequest struct {
	gorm.Model
	UserID uint `gorm:"index"`
	Amount int
	Method string // bank or cheque

	Status      string `gorm:"default:pending"`
	ReviewedBy  *uint
	ReviewedAt  *time.Time
	ReviewNote  string
	ChequeID    *uint
	BankAccount string
}

type Cheque struct {
	gorm.Model
	Series       string `gorm:"index:idx_cheque_series_number,unique"`
	Number       int    `gorm:"index:idx_cheque_series_number,unique"`
	WithdrawalID uint
	IssuedBy     uint
}

type Product struct {
	gorm.Model
	Name   string
	Price  int // in cents
	BV     int
	Active bool `gorm:"default:true"`
}

const (
	PurchasePending   = "pending"
	PurchaseCompleted = "completed"
	PurchaseCancelled = "cancelled"
)

type Purchase struct {
	gorm.Model
	UserID    uint `gorm:"index"`
	ProductID uint
	Quantity  int
	TotalBV   int // product BV x quantity at purchase time
	Status    string
}

type RankAchievement struct {
	gorm.Model
	UserID     uint   `gorm:"index:idx_rank_user_rank,unique"`
	Rank       string `gorm:"index:idx_rank_user_rank,unique"`
	TeamBV     int
	Bonus      int
	AchievedAt time.Time
}

type FranchiseRequest struct {
	gorm.Model
	UserID     uint
	City       string
	Message    string
	Status     string `gorm:"default:pending"` // pending, approved, rejected
	ReviewedBy *uint
	ReviewedAt *time.Time
	ReviewNote string
}

type SupportTicket struct {
	gorm.Model
	UserID  uint
	Subject string
	Body    string
	Status  string `gorm:"default:open"` // open, in_progress, closed
	Reply   string
	AdminID *uint
}

type Notification struct {
	gorm.Model
	UserID uint `gorm:"index"`
	Title  string
	Body   string
	ReadAt *time.Time
}

type NewsPost struct {
	gorm.Model
	Title       string
	Body        string
	PublishedBy uint
}

// Achiever is the admin-curated honors list shown on the dashboard.
type Achiever struct {
	gorm.Model
	UserID uint
	Rank   string
	Note   string
}
