package genealogy_test

import (
	"testing"

	"teamline/genealogy"
	"teamline/web/db"

	"gorm.io/gorm"
)

func evaluate(t *testing.T, userID uint) genealogy.RankResult {
	t.Helper()
	var res genealogy.RankResult
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		res, err = genealogy.EvaluateRank(tx, userID)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestRankPromotionTakesHighestEligible(t *testing.T) {
	db.ConnectTest()

	u := newUser(t, "u@example.com")
	db.DB.Model(&db.User{}).Where("id = ?", u.ID).Update("total_bv", 150000)

	res := evaluate(t, u.ID)
	if !res.Eligible {
		t.Fatal("expected promotion")
	}
	// 150000 clears Ruby (100000) but not Emerald (250000); the scan must
	// skip the intermediate tiers
	if res.NewRank != "Ruby" {
		t.Error("expected promotion straight to Ruby, got", res.NewRank)
	}

	if got := reload(t, u.ID).CurrentRank; got != "Ruby" {
		t.Error("expected current rank Ruby, got", got)
	}

	var achievement db.RankAchievement
	if err := db.DB.Where("user_id = ? AND rank = ?", u.ID, "Ruby").First(&achievement).Error; err != nil {
		t.Error("expected a rank achievement record:", err)
	}

	var tx db.Transaction
	if err := db.DB.Where("user_id = ? AND kind = ?", u.ID, db.TxRankBonus).First(&tx).Error; err != nil {
		t.Fatal("expected a rank bonus ledger entry:", err)
	}
	if tx.Amount != res.Bonus {
		t.Errorf("expected bonus %d credited, got %d", res.Bonus, tx.Amount)
	}
	if got := reload(t, u.ID).Balance; got != res.Bonus {
		t.Errorf("expected balance %d, got %d", res.Bonus, got)
	}
}

func TestRankNeverRegresses(t *testing.T) {
	db.ConnectTest()

	u := newUser(t, "u@example.com")
	db.DB.Model(&db.User{}).Where("id = ?", u.ID).
		Updates(map[string]interface{}{"current_rank": "Ruby", "total_bv": 0})

	res := evaluate(t, u.ID)
	if res.Eligible {
		t.Error("expected no promotion with zero team BV")
	}
	if got := reload(t, u.ID).CurrentRank; got != "Ruby" {
		t.Error("rank must never move down, got", got)
	}
}

func TestRankBonusIsOneTime(t *testing.T) {
	db.ConnectTest()

	u := newUser(t, "u@example.com")
	db.DB.Model(&db.User{}).Where("id = ?", u.ID).Update("total_bv", 6000)

	first := evaluate(t, u.ID)
	if !first.Eligible || first.NewRank != "Executive" {
		t.Fatal("expected promotion to Executive, got", first.NewRank)
	}

	second := evaluate(t, u.ID)
	if second.Eligible {
		t.Error("expected no second promotion at the same BV")
	}

	var count int64
	db.DB.Model(&db.Transaction{}).Where("user_id = ? AND kind = ?", u.ID, db.TxRankBonus).Count(&count)
	if count != 1 {
		t.Error("expected exactly one bonus ledger entry, got", count)
	}
}

func TestRankBelowThreshold(t *testing.T) {
	db.ConnectTest()

	u := newUser(t, "u@example.com")
	db.DB.Model(&db.User{}).Where("id = ?", u.ID).Update("total_bv", 4999)

	res := evaluate(t, u.ID)
	if res.Eligible {
		t.Error("expected no promotion below the first threshold")
	}
	if res.TeamBV != 4999 {
		t.Error("expected team BV 4999, got", res.TeamBV)
	}
}
