package recruit_test

import (
	"errors"
	"strings"
	"testing"

	"teamline/recruit"
	"teamline/web/db"

	"golang.org/x/crypto/bcrypt"
)

func newUser(t *testing.T, email, role string) db.User {
	t.Helper()
	u := db.User{Email: email, Name: email, Role: role, Status: "active"}
	if err := db.DB.Create(&u).Error; err != nil {
		t.Fatal(err)
	}
	return u
}

func TestFullApprovalFlow(t *testing.T) {
	db.ConnectTest()

	sponsor := newUser(t, "sponsor@example.com", db.RoleUser)
	admin := newUser(t, "admin@example.com", db.RoleAdmin)

	rec, err := recruit.Submit(sponsor.ID, sponsor.ID, "New Member", "new@example.com", "555-0101")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != db.RecruitAwaitingUpline {
		t.Fatal("expected awaiting_upline, got", rec.Status)
	}

	// the upline gets a notification to decide
	var note db.Notification
	if err := db.DB.Where("user_id = ?", sponsor.ID).First(&note).Error; err != nil {
		t.Error("expected an upline notification:", err)
	}

	if err := recruit.UplineDecide(rec.ID, sponsor.ID, true, db.PositionLeft); err != nil {
		t.Fatal(err)
	}

	var updated db.PendingRecruit
	db.DB.First(&updated, rec.ID)
	if updated.Status != db.RecruitAwaitingAdmin {
		t.Error("expected awaiting_admin, got", updated.Status)
	}
	if updated.Position != db.PositionLeft || updated.UplineDecision != "approved" {
		t.Error("expected stored position and upline decision")
	}
	if updated.UplineDecisionAt == nil {
		t.Error("expected the decision timestamp to be stamped")
	}

	// stage a KYC document against the recruit
	doc := db.KYCDocument{PendingRecruitID: &rec.ID, DocType: "passport", FileURL: "https://files/p.pdf", Status: "pending"}
	if err := db.DB.Create(&doc).Error; err != nil {
		t.Fatal(err)
	}

	newUser, tempPassword, err := recruit.AdminApprove(rec.ID, admin.ID, 50000)
	if err != nil {
		t.Fatal(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(newUser.Password), []byte(tempPassword)); err != nil {
		t.Error("temporary password must match the stored hash")
	}
	if newUser.PackageAmount != 50000 {
		t.Error("expected package amount 50000, got", newUser.PackageAmount)
	}
	if newUser.SponsorID == nil || *newUser.SponsorID != sponsor.ID {
		t.Error("expected the recruiter as sponsor")
	}

	// placement happened under the upline on the chosen side
	var placedSponsor db.User
	db.DB.First(&placedSponsor, sponsor.ID)
	if placedSponsor.LeftChildID == nil || *placedSponsor.LeftChildID != newUser.ID {
		t.Error("expected the new user on the sponsor's left slot")
	}

	// staged KYC moved over
	var movedDoc db.KYCDocument
	db.DB.First(&movedDoc, doc.ID)
	if movedDoc.UserID == nil || *movedDoc.UserID != newUser.ID {
		t.Error("expected the staged document transferred to the new user")
	}

	// the recruit row is retained as an audit trail
	var resolved db.PendingRecruit
	if err := db.DB.First(&resolved, rec.ID).Error; err != nil {
		t.Fatal("expected the recruit row to be kept:", err)
	}
	if resolved.Status != db.RecruitApproved {
		t.Error("expected approved status, got", resolved.Status)
	}
	if resolved.CreatedUserID == nil || *resolved.CreatedUserID != newUser.ID {
		t.Error("expected the created user linked on the recruit")
	}
	if resolved.ResolvedAt == nil {
		t.Error("expected ResolvedAt to be stamped")
	}
}

func TestAdminApproveBeforeUplineDecisionFails(t *testing.T) {
	db.ConnectTest()

	sponsor := newUser(t, "sponsor@example.com", db.RoleUser)
	admin := newUser(t, "admin@example.com", db.RoleAdmin)

	rec, err := recruit.Submit(sponsor.ID, sponsor.ID, "Early Bird", "early@example.com", "")
	if err != nil {
		t.Fatal(err)
	}

	_, _, err = recruit.AdminApprove(rec.ID, admin.ID, 10000)
	if !errors.Is(err, recruit.ErrInvalidTransition) {
		t.Error("expected ErrInvalidTransition, got", err)
	}

	var unchanged db.PendingRecruit
	db.DB.First(&unchanged, rec.ID)
	if unchanged.Status != db.RecruitAwaitingUpline {
		t.Error("failed approval must not change the state, got", unchanged.Status)
	}
}

func TestAdminApproveResolvedRecruitNamesState(t *testing.T) {
	db.ConnectTest()

	sponsor := newUser(t, "sponsor@example.com", db.RoleUser)
	admin := newUser(t, "admin@example.com", db.RoleAdmin)

	rec, err := recruit.Submit(sponsor.ID, sponsor.ID, "Prospect", "p@example.com", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := recruit.Reject(rec.ID, admin.ID, "incomplete"); err != nil {
		t.Fatal(err)
	}

	_, _, err = recruit.AdminApprove(rec.ID, admin.ID, 10000)
	if !errors.Is(err, recruit.ErrInvalidTransition) {
		t.Fatal("expected ErrInvalidTransition, got", err)
	}
	// the error must carry the actual state, not a generic waiting message
	if !strings.Contains(err.Error(), db.RecruitRejected) {
		t.Error("expected the error to name the rejected state, got", err)
	}
}

func TestUplineDecisionWrongActor(t *testing.T) {
	db.ConnectTest()

	sponsor := newUser(t, "sponsor@example.com", db.RoleUser)
	other := newUser(t, "other@example.com", db.RoleUser)

	rec, err := recruit.Submit(sponsor.ID, sponsor.ID, "Prospect", "p@example.com", "")
	if err != nil {
		t.Fatal(err)
	}

	err = recruit.UplineDecide(rec.ID, other.ID, true, db.PositionLeft)
	if !errors.Is(err, recruit.ErrNotUpline) {
		t.Error("expected ErrNotUpline, got", err)
	}
}

func TestUplineApprovalRequiresSide(t *testing.T) {
	db.ConnectTest()

	sponsor := newUser(t, "sponsor@example.com", db.RoleUser)

	rec, err := recruit.Submit(sponsor.ID, sponsor.ID, "Prospect", "p@example.com", "")
	if err != nil {
		t.Fatal(err)
	}

	err = recruit.UplineDecide(rec.ID, sponsor.ID, true, "")
	if !errors.Is(err, recruit.ErrMissingPosition) {
		t.Error("expected ErrMissingPosition, got", err)
	}
}

func TestRejectionKeepsRowAndNotifies(t *testing.T) {
	db.ConnectTest()

	recruiter := newUser(t, "recruiter@example.com", db.RoleUser)
	upline := newUser(t, "upline@example.com", db.RoleUser)
	admin := newUser(t, "admin@example.com", db.RoleAdmin)

	rec, err := recruit.Submit(recruiter.ID, upline.ID, "Prospect", "p@example.com", "")
	if err != nil {
		t.Fatal(err)
	}

	if err := recruit.Reject(rec.ID, admin.ID, "incomplete application"); err != nil {
		t.Fatal(err)
	}

	var rejected db.PendingRecruit
	if err := db.DB.First(&rejected, rec.ID).Error; err != nil {
		t.Fatal("expected the rejected row to be kept:", err)
	}
	if rejected.Status != db.RecruitRejected {
		t.Error("expected rejected status, got", rejected.Status)
	}
	if rejected.RejectReason != "incomplete application" {
		t.Error("expected the reason recorded, got", rejected.RejectReason)
	}
	if rejected.RejectedBy == nil || *rejected.RejectedBy != admin.ID {
		t.Error("expected the actor recorded")
	}

	// recruiter and the distinct upline are both notified
	var count int64
	db.DB.Model(&db.Notification{}).
		Where("user_id IN ? AND title = ?", []uint{recruiter.ID, upline.ID}, "Recruit rejected").
		Count(&count)
	if count != 2 {
		t.Error("expected 2 rejection notifications, got", count)
	}
}

func TestRejectResolvedRecruitFails(t *testing.T) {
	db.ConnectTest()

	sponsor := newUser(t, "sponsor@example.com", db.RoleUser)
	admin := newUser(t, "admin@example.com", db.RoleAdmin)

	rec, err := recruit.Submit(sponsor.ID, sponsor.ID, "Prospect", "p@example.com", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := recruit.Reject(rec.ID, admin.ID, "first rejection"); err != nil {
		t.Fatal(err)
	}

	err = recruit.Reject(rec.ID, admin.ID, "second rejection")
	if !errors.Is(err, recruit.ErrInvalidTransition) {
		t.Error("expected ErrInvalidTransition, got", err)
	}
}

func TestUplineDecline(t *testing.T) {
	db.ConnectTest()

	sponsor := newUser(t, "sponsor@example.com", db.RoleUser)

	rec, err := recruit.Submit(sponsor.ID, sponsor.ID, "Prospect", "p@example.com", "")
	if err != nil {
		t.Fatal(err)
	}

	if err := recruit.UplineDecide(rec.ID, sponsor.ID, false, ""); err != nil {
		t.Fatal(err)
	}

	var declined db.PendingRecruit
	db.DB.First(&declined, rec.ID)
	if declined.Status != db.RecruitRejected {
		t.Error("expected rejected after decline, got", declined.Status)
	}
}
