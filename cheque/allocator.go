package cheque

import (
	"sync"

	"teamline/web/db"
)

// Allocator hands out the smallest free cheque number per series. State is
// rebuilt from the cheques table on startup, in case of server restart.
type Allocator struct {
	mu     sync.Mutex
	series map[string]*numberSet
}

func NewAllocator() *Allocator {
	return &Allocator{
		series: make(map[string]*numberSet),
	}
}

// RestoreFromDB reloads every issued cheque number.
func (a *Allocator) RestoreFromDB() error {
	var cheques []db.Cheque
	if err := db.DB.Find(&cheques).Error; err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.series = make(map[string]*numberSet)
	for _, c := range cheques {
		a.set(c.Series).Add(c.Number)
	}
	return nil
}

// Allocate reserves and returns the smallest free number >= from in the
// given series.
func (a *Allocator) Allocate(series string, from int) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	set := a.set(series)
	n := set.NextFree(from)
	set.Add(n)
	return n
}

// Release returns a number to the pool, for when issuing the cheque row
// fails after allocation.
func (a *Allocator) Release(series string, number int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.set(series).Remove(number)
}

func (a *Allocator) set(series string) *numberSet {
	s, ok := a.series[series]
	if !ok {
		s = newNumberSet()
		a.series[series] = s
	}
	return s
}
