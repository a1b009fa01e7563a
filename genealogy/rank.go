package genealogy

import (
	"errors"
	"fmt"
	"time"

	"teamline/wallet"
	"teamline/web/db"

	"gorm.io/gorm"
)

type RankTier struct {
	Name      string
	Threshold int // team BV required
	Bonus     int // one-time flat bonus, in cents
}

// RankTiers is ordered by strictly increasing threshold.
var RankTiers = []RankTier{
	{"Associate", 0, 0},
	{"Executive", 5000, 50_00},
	{"Sapphire", 25000, 250_00},
	{"Ruby", 100000, 1000_00},
	{"Emerald", 250000, 2500_00},
	{"Diamond", 500000, 5000_00},
	{"Founder", 1000000, 10000_00},
}

func rankIndex(name string) int {
	for i, tier := range RankTiers {
		if tier.Name == name {
			return i
		}
	}
	return 0
}

type RankResult struct {
	Eligible bool
	NewRank  string
	Bonus    int
	TeamBV   int
}

// EvaluateRank scans the tiers from the top down to the user's current rank
// and promotes to the first one whose threshold the team BV meets, so a user
// who leapfrogs several tiers lands on the highest. Never demotes. On
// promotion it records the achievement and credits the flat bonus through
// the wallet ledger.
func EvaluateRank(tx *gorm.DB, userID uint) (RankResult, error) {
	var user db.User
	if err := db.ForUpdate(tx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RankResult{}, ErrUserNotFound
		}
		return RankResult{}, err
	}

	teamBV := user.TotalBV
	current := rankIndex(user.CurrentRank)

	for i := len(RankTiers) - 1; i > current; i-- {
		tier := RankTiers[i]
		if teamBV < tier.Threshold {
			continue
		}

		achievement := db.RankAchievement{
			UserID:     user.ID,
			Rank:       tier.Name,
			TeamBV:     teamBV,
			Bonus:      tier.Bonus,
			AchievedAt: time.Now(),
		}
		if err := tx.Create(&achievement).Error; err != nil {
			return RankResult{}, err
		}

		if tier.Bonus > 0 {
			ref := fmt.Sprintf("rank:%s", tier.Name)
			if err := wallet.Credit(tx, user.ID, tier.Bonus, db.TxRankBonus, ref); err != nil {
				return RankResult{}, err
			}
		}

		// column update only: the wallet credit already rewrote Balance
		if err := tx.Model(&db.User{}).Where("id = ?", user.ID).
			Update("current_rank", tier.Name).Error; err != nil {
			return RankResult{}, err
		}

		return RankResult{Eligible: true, NewRank: tier.Name, Bonus: tier.Bonus, TeamBV: teamBV}, nil
	}

	return RankResult{Eligible: false, TeamBV: teamBV}, nil
}
