// Package vote holds the up/down vote set bookkeeping shared by posts and replies.
package vote

import "sort"

// Direction is the button a user pressed.
type Direction int

const (
	Up   Direction = 1
	Down Direction = -1
)

func (d Direction) String() string {
	if d == Up {
		return "upvote"
	}
	return "downvote"
}

// Next returns a user's contribution after pressing dir when it was current.
// Pressing the same direction again retracts the vote.
func Next(current int, dir Direction) int {
	if current == int(dir) {
		return 0
	}
	return int(dir)
}

// Change describes what a toggle did to a single user's contribution.
type Change struct {
	UserID uint
	Before int
	After  int
}

// Retracted reports whether the toggle removed the user's vote.
func (c Change) Retracted() bool { return c.After == 0 }

// Tally is the pair of disjoint voter sets of one target.
// It is not safe for concurrent use.
type Tally struct {
	up   map[uint]struct{}
	down map[uint]struct{}
}

// NewTally builds a tally from voter lists. A user listed in both keeps the up vote.
func NewTally(upvoters, downvoters []uint) *Tally {
	t := &Tally{
		up:   make(map[uint]struct{}, len(upvoters)),
		down: make(map[uint]struct{}, len(downvoters)),
	}
	for _, id := range upvoters {
		t.up[id] = struct{}{}
	}
	for _, id := range downvoters {
		if _, ok := t.up[id]; !ok {
			t.down[id] = struct{}{}
		}
	}
	return t
}

// Contribution is +1, -1 or 0 for the user.
func (t *Tally) Contribution(userID uint) int {
	if _, ok := t.up[userID]; ok {
		return 1
	}
	if _, ok := t.down[userID]; ok {
		return -1
	}
	return 0
}

// Upvote toggles the user's upvote.
func (t *Tally) Upvote(userID uint) Change { return t.Toggle(userID, Up) }

// Downvote toggles the user's downvote.
func (t *Tally) Downvote(userID uint) Change { return t.Toggle(userID, Down) }

// Toggle applies one button press and keeps the sets disjoint.
func (t *Tally) Toggle(userID uint, dir Direction) Change {
	before := t.Contribution(userID)
	after := Next(before, dir)

	delete(t.up, userID)
	delete(t.down, userID)
	switch after {
	case 1:
		t.up[userID] = struct{}{}
	case -1:
		t.down[userID] = struct{}{}
	}
	return Change{UserID: userID, Before: before, After: after}
}

// Score is |upvotes| - |downvotes|.
func (t *Tally) Score() int { return len(t.up) - len(t.down) }

func (t *Tally) UpCount() int   { return len(t.up) }
func (t *Tally) DownCount() int { return len(t.down) }

// Upvoters returns the upvoting user ids in ascending order.
func (t *Tally) Upvoters() []uint { return sortedKeys(t.up) }

// Downvoters returns the downvoting user ids in ascending order.
func (t *Tally) Downvoters() []uint { return sortedKeys(t.down) }

func sortedKeys(m map[uint]struct{}) []uint {
	ids := make([]uint, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
