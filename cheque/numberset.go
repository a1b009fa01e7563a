package cheque

import (
	"github.com/google/btree"
)

// numberSet stores a set of issued cheque numbers as intervals of
// consecutive integers in a B-tree, so NextFree (smallest unissued number
// >= x) runs in O(log n) regardless of how many cheques a series holds.

type span struct {
	lo, hi int
}

func (a span) Less(b btree.Item) bool {
	return a.lo < b.(span).lo
}

type numberSet struct {
	tree *btree.BTree
}

func newNumberSet() *numberSet {
	return &numberSet{
		tree: btree.New(2),
	}
}

// Add marks x as issued, merging with adjacent spans.
func (s *numberSet) Add(x int) {
	iv := span{x, x}

	var prev *span
	s.tree.DescendLessOrEqual(iv, func(it btree.Item) bool {
		p := it.(span)
		if p.hi+1 >= x {
			prev = &p
		}
		return false
	})

	if prev != nil {
		s.tree.Delete(*prev)
		if x > prev.hi {
			prev.hi = x
		}
		s.mergeForward(prev)
		s.tree.ReplaceOrInsert(*prev)
		return
	}

	var next *span
	s.tree.AscendGreaterOrEqual(iv, func(it btree.Item) bool {
		n := it.(span)
		if n.lo <= x+1 {
			next = &n
		}
		return false
	})

	if next != nil {
		s.tree.Delete(*next)
		if x < next.lo {
			next.lo = x
		}
		if x > next.hi {
			next.hi = x
		}
		s.tree.ReplaceOrInsert(*next)
		return
	}

	s.tree.ReplaceOrInsert(iv)
}

func (s *numberSet) mergeForward(cur *span) {
	var next *span
	s.tree.AscendGreaterOrEqual(*cur, func(it btree.Item) bool {
		n := it.(span)
		if cur.hi+1 >= n.lo {
			next = &n
		}
		return false
	})
	if next != nil {
		s.tree.Delete(*next)
		if next.hi > cur.hi {
			cur.hi = next.hi
		}
	}
}

// Remove returns x to the pool, splitting its span if needed.
func (s *numberSet) Remove(x int) {
	iv := span{x, x}
	var target *span
	s.tree.DescendLessOrEqual(iv, func(it btree.Item) bool {
		p := it.(span)
		if p.lo <= x && x <= p.hi {
			target = &p
		}
		return false
	})
	if target == nil {
		return
	}
	s.tree.Delete(*target)
	if target.lo < x {
		s.tree.ReplaceOrInsert(span{target.lo, x - 1})
	}
	if x < target.hi {
		s.tree.ReplaceOrInsert(span{x + 1, target.hi})
	}
}

// NextFree returns the smallest integer >= x not in the set.
func (s *numberSet) NextFree(x int) int {
	iv := span{x, x}
	res := x
	found := false
	s.tree.DescendLessOrEqual(iv, func(it btree.Item) bool {
		p := it.(span)
		if p.lo <= x && x <= p.hi {
			res = p.hi + 1
			found = true
		}
		return false
	})
	if found {
		return res
	}
	return x
}
