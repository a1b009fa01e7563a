package genealogy_test

import (
	"errors"
	"testing"

	"teamline/genealogy"
	"teamline/web/db"
)

func newUser(t *testing.T, email string) db.User {
	t.Helper()
	u := db.User{Email: email, Name: email, Role: db.RoleUser, Status: "active", CurrentRank: "Associate"}
	if err := db.DB.Create(&u).Error; err != nil {
		t.Fatal(err)
	}
	return u
}

func reload(t *testing.T, id uint) db.User {
	t.Helper()
	var u db.User
	if err := db.DB.First(&u, id).Error; err != nil {
		t.Fatal(err)
	}
	return u
}

func TestDirectPlacement(t *testing.T) {
	db.ConnectTest()

	x := newUser(t, "x@example.com")
	y := newUser(t, "y@example.com")

	if err := genealogy.PlaceUser(y.ID, x.ID, db.PositionLeft); err != nil {
		t.Fatal(err)
	}

	x = reload(t, x.ID)
	y = reload(t, y.ID)

	if x.LeftChildID == nil || *x.LeftChildID != y.ID {
		t.Error("expected X's left child to be Y")
	}
	if y.ParentID == nil || *y.ParentID != x.ID {
		t.Error("expected Y's parent to be X")
	}
	if y.Position != db.PositionLeft {
		t.Error("expected Y's position to be left, got", y.Position)
	}
}

func TestSpilloverStaysOnRequestedSide(t *testing.T) {
	db.ConnectTest()

	x := newUser(t, "x@example.com")
	y := newUser(t, "y@example.com")
	z := newUser(t, "z@example.com")

	if err := genealogy.PlaceUser(y.ID, x.ID, db.PositionLeft); err != nil {
		t.Fatal(err)
	}

	// X's left slot is taken, so Z must land at Y.left, never X.right
	if err := genealogy.PlaceUser(z.ID, x.ID, db.PositionLeft); err != nil {
		t.Fatal(err)
	}

	x = reload(t, x.ID)
	y = reload(t, y.ID)
	z = reload(t, z.ID)

	if x.RightChildID != nil {
		t.Error("spillover must not use the opposite side")
	}
	if y.LeftChildID == nil || *y.LeftChildID != z.ID {
		t.Error("expected Z to spill over to Y's left slot")
	}
	if z.ParentID == nil || *z.ParentID != y.ID {
		t.Error("expected Z's parent to be Y")
	}
}

func TestSpilloverWalksDeepChain(t *testing.T) {
	db.ConnectTest()

	root := newUser(t, "root@example.com")
	chain := []db.User{root}
	for i := 0; i < 3; i++ {
		u := newUser(t, string(rune('a'+i))+"@example.com")
		if err := genealogy.PlaceUser(u.ID, root.ID, db.PositionRight); err != nil {
			t.Fatal(err)
		}
		chain = append(chain, u)
	}

	// each new user must hang off the previous one's right slot
	for i := 1; i < len(chain); i++ {
		u := reload(t, chain[i].ID)
		if u.ParentID == nil || *u.ParentID != chain[i-1].ID {
			t.Errorf("user %d: expected parent %d", u.ID, chain[i-1].ID)
		}
		if u.Position != db.PositionRight {
			t.Errorf("user %d: expected right position", u.ID)
		}
	}
}

func TestPlacementUplineNotFound(t *testing.T) {
	db.ConnectTest()

	y := newUser(t, "y@example.com")

	err := genealogy.PlaceUser(y.ID, 9999, db.PositionLeft)
	if !errors.Is(err, genealogy.ErrUplineNotFound) {
		t.Error("expected ErrUplineNotFound, got", err)
	}
}

func TestPlacementRejectsDoublePlacement(t *testing.T) {
	db.ConnectTest()

	x := newUser(t, "x@example.com")
	y := newUser(t, "y@example.com")

	if err := genealogy.PlaceUser(y.ID, x.ID, db.PositionLeft); err != nil {
		t.Fatal(err)
	}

	err := genealogy.PlaceUser(y.ID, x.ID, db.PositionRight)
	if !errors.Is(err, genealogy.ErrAlreadyPlaced) {
		t.Error("expected ErrAlreadyPlaced, got", err)
	}
}

func TestPlacementInvalidSide(t *testing.T) {
	db.ConnectTest()

	x := newUser(t, "x@example.com")
	y := newUser(t, "y@example.com")

	err := genealogy.PlaceUser(y.ID, x.ID, "middle")
	if !errors.Is(err, genealogy.ErrInvalidSide) {
		t.Error("expected ErrInvalidSide, got", err)
	}
}
