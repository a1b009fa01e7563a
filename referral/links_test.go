package referral_test

import (
	"errors"
	"testing"
	"time"

	"teamline/referral"
	"teamline/web/db"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newUser(t *testing.T, email string) db.User {
	t.Helper()
	u := db.User{Email: email, Name: email, Role: db.RoleUser, Status: "active"}
	if err := db.DB.Create(&u).Error; err != nil {
		t.Fatal(err)
	}
	return u
}

func newLink(t *testing.T, generatedBy uint, expiresAt time.Time) db.ReferralLink {
	t.Helper()
	l := db.ReferralLink{
		Token:       uuid.New().String(),
		GeneratedBy: generatedBy,
		Position:    db.PositionLeft,
		ExpiresAt:   expiresAt,
	}
	if err := db.DB.Create(&l).Error; err != nil {
		t.Fatal(err)
	}
	return l
}

func TestConsumeIsOneShot(t *testing.T) {
	db.ConnectTest()
	sponsor := newUser(t, "sponsor@example.com")
	link := newLink(t, sponsor.ID, time.Now().Add(time.Hour))

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		got, err := referral.ConsumeTx(tx, link.Token)
		if err != nil {
			return err
		}
		if got.GeneratedBy != sponsor.ID || got.Position != db.PositionLeft {
			t.Error("expected the claimed link returned")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	var claimed db.ReferralLink
	db.DB.First(&claimed, link.ID)
	if claimed.UsedAt == nil {
		t.Fatal("expected UsedAt stamped on first consumption")
	}

	// the second use of the same token must fail
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		_, err := referral.ConsumeTx(tx, link.Token)
		return err
	})
	if !errors.Is(err, referral.ErrLinkUsed) {
		t.Error("expected ErrLinkUsed on reuse, got", err)
	}
}

func TestConsumeExpiredLink(t *testing.T) {
	db.ConnectTest()
	sponsor := newUser(t, "sponsor@example.com")
	link := newLink(t, sponsor.ID, time.Now().Add(-time.Minute))

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		_, err := referral.ConsumeTx(tx, link.Token)
		return err
	})
	if !errors.Is(err, referral.ErrLinkExpired) {
		t.Error("expected ErrLinkExpired, got", err)
	}

	var untouched db.ReferralLink
	db.DB.First(&untouched, link.ID)
	if untouched.UsedAt != nil {
		t.Error("an expired link must not be stamped used")
	}
}

func TestConsumeUnknownToken(t *testing.T) {
	db.ConnectTest()

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		_, err := referral.ConsumeTx(tx, "no-such-token")
		return err
	})
	if !errors.Is(err, referral.ErrLinkNotFound) {
		t.Error("expected ErrLinkNotFound, got", err)
	}
}

func TestBindUserRecordsRegistration(t *testing.T) {
	db.ConnectTest()
	sponsor := newUser(t, "sponsor@example.com")
	joined := newUser(t, "joined@example.com")
	link := newLink(t, sponsor.ID, time.Now().Add(time.Hour))

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if _, err := referral.ConsumeTx(tx, link.Token); err != nil {
			return err
		}
		return referral.BindUserTx(tx, link.ID, joined.ID)
	})
	if err != nil {
		t.Fatal(err)
	}

	var claimed db.ReferralLink
	db.DB.First(&claimed, link.ID)
	if claimed.UsedBy == nil || *claimed.UsedBy != joined.ID {
		t.Error("expected the registered user recorded on the link")
	}
}
