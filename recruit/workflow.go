package recruit

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"teamline/genealogy"
	"teamline/web/db"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrRecruitNotFound   = errors.New("recruit not found")
	ErrNotUpline         = errors.New("only the upline can decide on this recruit")
	ErrInvalidTransition = errors.New("recruit is not in a state that allows this action")
	ErrMissingPosition   = errors.New("upline approval requires a placement side")
)

// Submit creates a pending recruit in awaiting_upline and notifies the
// upline that a decision is needed.
func Submit(recruiterID, uplineID uint, name, email, phone string) (db.PendingRecruit, error) {
	var upline db.User
	if err := db.DB.First(&upline, uplineID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return db.PendingRecruit{}, genealogy.ErrUplineNotFound
		}
		return db.PendingRecruit{}, err
	}

	recruit := db.PendingRecruit{
		Email:       email,
		Name:        name,
		Phone:       phone,
		RecruiterID: recruiterID,
		UplineID:    uplineID,
		Status:      db.RecruitAwaitingUpline,
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&recruit).Error; err != nil {
			return err
		}
		note := db.Notification{
			UserID: uplineID,
			Title:  "New recruit awaiting your decision",
			Body:   fmt.Sprintf("%s has been submitted to your team; choose a placement side.", name),
		}
		return tx.Create(&note).Error
	})
	return recruit, err
}

// UplineDecide moves a recruit from awaiting_upline to awaiting_admin
// (approve with a side) or to rejected (decline).
func UplineDecide(recruitID, uplineID uint, approve bool, side string) error {
	return db.DB.Transaction(func(tx *gorm.DB) error {
		var recruit db.PendingRecruit
		if err := db.ForUpdate(tx).First(&recruit, recruitID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecruitNotFound
			}
			return err
		}

		if recruit.UplineID != uplineID {
			return ErrNotUpline
		}
		if recruit.Status != db.RecruitAwaitingUpline {
			return ErrInvalidTransition
		}

		if !approve {
			return reject(tx, &recruit, uplineID, "declined by upline")
		}

		if side != db.PositionLeft && side != db.PositionRight {
			return ErrMissingPosition
		}

		now := time.Now()
		recruit.Status = db.RecruitAwaitingAdmin
		recruit.Position = side
		recruit.UplineDecision = "approved"
		recruit.UplineDecisionAt = &now
		return tx.Save(&recruit).Error
	})
}

// AdminApprove turns an awaiting_admin recruit into a real user: creates the
// account, places it in the tree, moves staged KYC documents over and marks
// the recruit approved. Returns the created user and its temporary password
// so the caller can deliver credentials after commit.
func AdminApprove(recruitID, adminID uint, packageAmount int) (db.User, string, error) {
	var user db.User
	tempPassword := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var recruit db.PendingRecruit
		if err := db.ForUpdate(tx).First(&recruit, recruitID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecruitNotFound
			}
			return err
		}

		if recruit.Status != db.RecruitAwaitingAdmin ||
			recruit.UplineDecision != "approved" || recruit.Position == "" {
			return fmt.Errorf("%w (status %s)", ErrInvalidTransition, recruit.Status)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), 10)
		if err != nil {
			return err
		}

		user = db.User{
			Email:         recruit.Email,
			Password:      string(hash),
			Name:          recruit.Name,
			Role:          db.RoleUser,
			Status:        "active",
			SponsorID:     &recruit.RecruiterID,
			PackageAmount: packageAmount,
			IsVerified:    true,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		if err := genealogy.PlaceUserTx(tx, user.ID, recruit.UplineID, recruit.Position); err != nil {
			return err
		}

		// KYC documents staged against the recruit now belong to the user
		if err := tx.Model(&db.KYCDocument{}).
			Where("pending_recruit_id = ?", recruit.ID).
			Update("user_id", user.ID).Error; err != nil {
			return err
		}

		now := time.Now()
		recruit.Status = db.RecruitApproved
		recruit.ResolvedAt = &now
		recruit.CreatedUserID = &user.ID
		if err := tx.Save(&recruit).Error; err != nil {
			return err
		}

		note := db.Notification{
			UserID: recruit.RecruiterID,
			Title:  "Recruit approved",
			Body:   fmt.Sprintf("%s has joined your team.", recruit.Name),
		}
		return tx.Create(&note).Error
	})
	if err != nil {
		return db.User{}, "", err
	}

	return user, tempPassword, nil
}

// Reject moves a recruit in either waiting state to rejected. The row is
// kept as an audit trail; the recruiter and the upline (when distinct) get
// notifications.
func Reject(recruitID, actorID uint, reason string) error {
	return db.DB.Transaction(func(tx *gorm.DB) error {
		var recruit db.PendingRecruit
		if err := db.ForUpdate(tx).First(&recruit, recruitID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecruitNotFound
			}
			return err
		}

		if recruit.Status != db.RecruitAwaitingUpline && recruit.Status != db.RecruitAwaitingAdmin {
			return ErrInvalidTransition
		}

		return reject(tx, &recruit, actorID, reason)
	})
}

func reject(tx *gorm.DB, recruit *db.PendingRecruit, actorID uint, reason string) error {
	now := time.Now()
	recruit.Status = db.RecruitRejected
	recruit.RejectReason = reason
	recruit.RejectedBy = &actorID
	recruit.ResolvedAt = &now
	if err := tx.Save(recruit).Error; err != nil {
		return err
	}

	body := fmt.Sprintf("Recruit %s was rejected: %s", recruit.Name, reason)
	notes := []db.Notification{
		{UserID: recruit.RecruiterID, Title: "Recruit rejected", Body: body},
	}
	if recruit.UplineID != recruit.RecruiterID {
		notes = append(notes, db.Notification{
			UserID: recruit.UplineID, Title: "Recruit rejected", Body: body,
		})
	}
	return tx.Create(&notes).Error
}
