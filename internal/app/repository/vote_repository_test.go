package repository

import (
	"sync"
	"testing"

	"github.com/ikkim/qna-forum-backend/internal/app/model"
	"github.com/ikkim/qna-forum-backend/pkg/vote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestVoteRepository_ToggleSequence(t *testing.T) {
	f := setupForumTest(t, 2)
	r := f.reply(t, "answer", 0, nil)
	voter := f.users[1].ID

	tests := []struct {
		name      string
		dir       vote.Direction
		wantUp    []uint
		wantDown  []uint
		wantScore int
	}{
		{"upvote", vote.Up, []uint{voter}, []uint{}, 1},
		{"upvote again retracts", vote.Up, []uint{}, []uint{}, 0},
		{"downvote", vote.Down, []uint{}, []uint{voter}, -1},
		{"switch to upvote", vote.Up, []uint{voter}, []uint{}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tally, err := f.votes.Toggle(model.VoteTargetReply, r.ID, voter, tt.dir)
			require.NoError(t, err)
			assert.Equal(t, tt.wantUp, tally.Upvoters())
			assert.Equal(t, tt.wantDown, tally.Downvoters())
			assert.Equal(t, tt.wantScore, tally.Score())

			stored, err := f.replies.FindByID(r.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantScore, stored.VoteScore)
		})
	}

	var rows int64
	f.db.Model(&model.Vote{}).Count(&rows)
	assert.Equal(t, int64(1), rows)
}

func TestVoteRepository_ConcurrentVoters(t *testing.T) {
	f := setupForumTest(t, 8)
	r := f.reply(t, "popular", 0, nil)

	var wg sync.WaitGroup
	errs := make(chan error, len(f.users))
	for _, u := range f.users {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			_, err := f.votes.Toggle(model.VoteTargetReply, r.ID, userID, vote.Up)
			errs <- err
		}(u.ID)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stored, err := f.replies.FindByID(r.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Upvotes, len(f.users))
	assert.Equal(t, len(f.users), stored.VoteScore)
}

func TestVoteRepository_PostTarget(t *testing.T) {
	f := setupForumTest(t, 3)

	_, err := f.votes.Toggle(model.VoteTargetPost, f.post.ID, f.users[1].ID, vote.Down)
	require.NoError(t, err)
	tally, err := f.votes.Toggle(model.VoteTargetPost, f.post.ID, f.users[2].ID, vote.Down)
	require.NoError(t, err)
	assert.Equal(t, -2, tally.Score())
	assert.Equal(t, -2, f.reloadPost(t).VoteScore)

	_, err = f.votes.Toggle(model.VoteTargetPost, 4242, f.users[1].ID, vote.Up)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = f.votes.Toggle(model.VoteTarget("poll"), f.post.ID, f.users[1].ID, vote.Up)
	assert.Error(t, err)
}

func TestVoteRepository_Reconcile(t *testing.T) {
	f := setupForumTest(t, 3)
	r := f.reply(t, "drifted", 0, nil)

	_, err := f.votes.Toggle(model.VoteTargetReply, r.ID, f.users[1].ID, vote.Up)
	require.NoError(t, err)
	_, err = f.votes.Toggle(model.VoteTargetReply, r.ID, f.users[2].ID, vote.Up)
	require.NoError(t, err)

	// out-of-band writes
	require.NoError(t, f.db.Model(&model.Reply{}).Where("id = ?", r.ID).UpdateColumn("vote_score", 17).Error)
	require.NoError(t, f.db.Model(&model.Post{}).Where("id = ?", f.post.ID).UpdateColumn("vote_score", -3).Error)

	fixed, err := f.votes.Reconcile(model.VoteTargetReply)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fixed)

	fixed, err = f.votes.Reconcile(model.VoteTargetPost)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fixed)

	stored, err := f.replies.FindByID(r.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.VoteScore)
	assert.Equal(t, 0, f.reloadPost(t).VoteScore)

	fixed, err = f.votes.Reconcile(model.VoteTargetReply)
	require.NoError(t, err)
	assert.Zero(t, fixed)
}

func TestVoteRepository_TallyMany(t *testing.T) {
	f := setupForumTest(t, 3)
	a := f.reply(t, "a", 0, nil)
	b := f.reply(t, "b", 0, nil)

	_, err := f.votes.Toggle(model.VoteTargetReply, a.ID, f.users[1].ID, vote.Up)
	require.NoError(t, err)

	tallies, err := f.votes.TallyMany(model.VoteTargetReply, []uint{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, tallies[a.ID].Score())
	assert.Equal(t, 0, tallies[b.ID].Score())

	empty, err := f.votes.TallyMany(model.VoteTargetReply, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
