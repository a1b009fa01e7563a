package genealogy_test

import (
	"testing"

	"teamline/genealogy"
	"teamline/web/db"

	"gorm.io/gorm"
)

// completePurchase records a completed purchase and pushes its BV up the
// tree, the way the purchase endpoint does.
func completePurchase(t *testing.T, userID uint, bv int) {
	t.Helper()
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		purchase := db.Purchase{UserID: userID, ProductID: 1, Quantity: 1, TotalBV: bv, Status: db.PurchaseCompleted}
		if err := tx.Create(&purchase).Error; err != nil {
			return err
		}
		_, err := genealogy.ApplyPurchaseVolume(tx, userID, bv)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestVolumePropagation(t *testing.T) {
	db.ConnectTest()

	x := newUser(t, "x@example.com")
	y := newUser(t, "y@example.com")
	z := newUser(t, "z@example.com")

	if err := genealogy.PlaceUser(y.ID, x.ID, db.PositionLeft); err != nil {
		t.Fatal(err)
	}
	if err := genealogy.PlaceUser(z.ID, y.ID, db.PositionRight); err != nil {
		t.Fatal(err)
	}

	completePurchase(t, z.ID, 200)

	z = reload(t, z.ID)
	y = reload(t, y.ID)
	x = reload(t, x.ID)

	if z.TotalBV != 200 {
		t.Error("expected Z total BV 200, got", z.TotalBV)
	}
	if y.TotalBV != 200 || y.RightBV != 200 || y.LeftBV != 0 {
		t.Errorf("expected Y volumes total=200 right=200 left=0, got %d/%d/%d", y.TotalBV, y.RightBV, y.LeftBV)
	}
	if x.TotalBV != 200 || x.LeftBV != 200 || x.RightBV != 0 {
		t.Errorf("expected X volumes total=200 left=200 right=0, got %d/%d/%d", x.TotalBV, x.LeftBV, x.RightBV)
	}
}

func TestVolumeMonotonicity(t *testing.T) {
	db.ConnectTest()

	x := newUser(t, "x@example.com")
	y := newUser(t, "y@example.com")
	if err := genealogy.PlaceUser(y.ID, x.ID, db.PositionLeft); err != nil {
		t.Fatal(err)
	}

	completePurchase(t, y.ID, 100)
	before := reload(t, x.ID).TotalBV

	completePurchase(t, y.ID, 300)
	after := reload(t, x.ID).TotalBV

	if after-before != 300 {
		t.Errorf("expected ancestor total BV to grow by exactly 300, grew by %d", after-before)
	}
}

func TestRecomputeMatchesIncremental(t *testing.T) {
	db.ConnectTest()

	x := newUser(t, "x@example.com")
	y := newUser(t, "y@example.com")
	z := newUser(t, "z@example.com")
	w := newUser(t, "w@example.com")

	if err := genealogy.PlaceUser(y.ID, x.ID, db.PositionLeft); err != nil {
		t.Fatal(err)
	}
	if err := genealogy.PlaceUser(z.ID, x.ID, db.PositionRight); err != nil {
		t.Fatal(err)
	}
	if err := genealogy.PlaceUser(w.ID, y.ID, db.PositionLeft); err != nil {
		t.Fatal(err)
	}

	completePurchase(t, x.ID, 50)
	completePurchase(t, y.ID, 100)
	completePurchase(t, z.ID, 150)
	completePurchase(t, w.ID, 250)

	for _, id := range []uint{x.ID, y.ID, z.ID, w.ID} {
		stored := reload(t, id)
		computed, err := genealogy.RecomputeVolume(db.DB, id)
		if err != nil {
			t.Fatal(err)
		}
		if computed.TotalBV != stored.TotalBV || computed.LeftBV != stored.LeftBV || computed.RightBV != stored.RightBV {
			t.Errorf("user %d: recompute %+v disagrees with stored %d/%d/%d",
				id, computed, stored.TotalBV, stored.LeftBV, stored.RightBV)
		}
	}
}

func TestRecomputeIdempotent(t *testing.T) {
	db.ConnectTest()

	x := newUser(t, "x@example.com")
	y := newUser(t, "y@example.com")
	if err := genealogy.PlaceUser(y.ID, x.ID, db.PositionRight); err != nil {
		t.Fatal(err)
	}
	completePurchase(t, y.ID, 120)

	first, err := genealogy.RecomputeVolume(db.DB, x.ID)
	if err != nil {
		t.Fatal(err)
	}
	second, err := genealogy.RecomputeVolume(db.DB, x.ID)
	if err != nil {
		t.Fatal(err)
	}

	if first != second {
		t.Errorf("expected identical results, got %+v then %+v", first, second)
	}
}

func TestPurchaseScenarioProductBV(t *testing.T) {
	db.ConnectTest()

	parent := newUser(t, "parent@example.com")
	u := newUser(t, "u@example.com")
	if err := genealogy.PlaceUser(u.ID, parent.ID, db.PositionLeft); err != nil {
		t.Fatal(err)
	}

	// product BV 100, quantity 2
	completePurchase(t, u.ID, 200)

	vol, err := genealogy.RecomputeVolume(db.DB, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if vol.TotalBV != 200 {
		t.Error("expected own BV 200, got", vol.TotalBV)
	}

	if got := reload(t, parent.ID).TotalBV; got != 200 {
		t.Error("expected parent's total BV to increase by 200, got", got)
	}
}
