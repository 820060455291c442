package vote

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNext(t *testing.T) {
	tests := []struct {
		current int
		dir     Direction
		want    int
	}{
		{0, Up, 1},
		{1, Up, 0},
		{-1, Up, 1},
		{0, Down, -1},
		{-1, Down, 0},
		{1, Down, -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Next(tt.current, tt.dir), "current=%d dir=%s", tt.current, tt.dir)
	}
}

func TestTally_UpvoteToggle(t *testing.T) {
	tally := NewTally(nil, nil)

	change := tally.Upvote(1)
	assert.Equal(t, 0, change.Before)
	assert.Equal(t, 1, change.After)
	assert.Equal(t, 1, tally.Score())

	change = tally.Upvote(1)
	assert.True(t, change.Retracted())
	assert.Equal(t, 0, tally.Score())
	assert.Empty(t, tally.Upvoters())
}

func TestTally_SwitchDirection(t *testing.T) {
	tally := NewTally([]uint{1}, nil)

	tally.Downvote(1)
	assert.Equal(t, -1, tally.Contribution(1))
	assert.Empty(t, tally.Upvoters())
	assert.Equal(t, []uint{1}, tally.Downvoters())
	assert.Equal(t, -1, tally.Score())
}

func TestTally_ManyVoters(t *testing.T) {
	// up {A,B}, down {C}: A down, D up
	tally := NewTally([]uint{1, 2}, []uint{3})
	assert.Equal(t, 1, tally.Score())

	tally.Downvote(1)
	tally.Upvote(4)

	assert.Equal(t, []uint{2, 4}, tally.Upvoters())
	assert.Equal(t, []uint{1, 3}, tally.Downvoters())
	assert.Equal(t, 0, tally.Score())
}

func TestTally_NeverDuplicates(t *testing.T) {
	tally := NewTally([]uint{5, 5, 5}, []uint{5})
	assert.Equal(t, 1, tally.UpCount())
	assert.Equal(t, 0, tally.DownCount())

	for i := 0; i < 7; i++ {
		tally.Upvote(9)
	}
	// odd number of presses leaves the vote in place
	assert.Equal(t, 1, tally.Contribution(9))
	assert.Equal(t, 2, tally.Score())
}
