package cheque_test

import (
	"testing"

	"teamline/cheque"
	"teamline/web/db"
)

func TestAllocateSequential(t *testing.T) {
	a := cheque.NewAllocator()

	first := a.Allocate("TL", 100001)
	second := a.Allocate("TL", 100001)

	if first != 100001 {
		t.Error("expected 100001, got", first)
	}
	if second != 100002 {
		t.Error("expected 100002, got", second)
	}
}

func TestReleaseReusesNumber(t *testing.T) {
	a := cheque.NewAllocator()

	a.Allocate("TL", 100001)
	n := a.Allocate("TL", 100001)
	a.Release("TL", n)

	if got := a.Allocate("TL", 100001); got != n {
		t.Errorf("expected released number %d to be reused, got %d", n, got)
	}
}

func TestSeriesAreIndependent(t *testing.T) {
	a := cheque.NewAllocator()

	a.Allocate("TL", 100001)
	if got := a.Allocate("BR", 100001); got != 100001 {
		t.Error("expected the other series to start fresh, got", got)
	}
}

func TestRestoreFromDB(t *testing.T) {
	db.ConnectTest()

	issued := []db.Cheque{
		{Series: "TL", Number: 100001, WithdrawalID: 1, IssuedBy: 1},
		{Series: "TL", Number: 100002, WithdrawalID: 2, IssuedBy: 1},
		{Series: "TL", Number: 100004, WithdrawalID: 3, IssuedBy: 1},
	}
	for i := range issued {
		if err := db.DB.Create(&issued[i]).Error; err != nil {
			t.Fatal(err)
		}
	}

	a := cheque.NewAllocator()
	if err := a.RestoreFromDB(); err != nil {
		t.Fatal(err)
	}

	if got := a.Allocate("TL", 100001); got != 100003 {
		t.Error("expected the gap at 100003, got", got)
	}
	if got := a.Allocate("TL", 100001); got != 100005 {
		t.Error("expected 100005 next, got", got)
	}
}
