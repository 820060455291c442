package scheduler

import (
	"context"
	"fmt"

	"github.com/ikkim/qna-forum-backend/internal/app/model"
	"github.com/ikkim/qna-forum-backend/internal/metrics"
	"github.com/ikkim/qna-forum-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// VoteReconciler rewrites drifted vote_score columns for one target type.
type VoteReconciler interface {
	Reconcile(target model.VoteTarget) (int64, error)
}

// ReplyListInvalidator drops cached reply lists whose scores may be stale.
type ReplyListInvalidator interface {
	InvalidateAll(ctx context.Context) error
}

// VoteReconcileScheduler periodically repairs vote_score columns that
// disagree with the votes table.
type VoteReconcileScheduler struct {
	cron       *cron.Cron
	spec       string
	reconciler VoteReconciler
	replyCache ReplyListInvalidator
}

// NewVoteReconcileScheduler schedules RunOnce with a standard 5-field cron spec.
func NewVoteReconcileScheduler(reconciler VoteReconciler, spec string) *VoteReconcileScheduler {
	return &VoteReconcileScheduler{
		cron:       cron.New(),
		spec:       spec,
		reconciler: reconciler,
	}
}

// WithReplyCache flushes c whenever a run repairs reply scores.
func (s *VoteReconcileScheduler) WithReplyCache(c ReplyListInvalidator) *VoteReconcileScheduler {
	s.replyCache = c
	return s
}

func (s *VoteReconcileScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, func() {
		if _, err := s.RunOnce(); err != nil {
			logger.Error("Scheduled vote reconciliation failed", err)
		}
	}); err != nil {
		logger.Error("Failed to add cron job for vote reconciliation", err, map[string]interface{}{
			"spec": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Vote reconcile scheduler started", map[string]interface{}{
		"spec": s.spec,
	})
	return nil
}

// Stop waits for a running job to finish.
func (s *VoteReconcileScheduler) Stop() {
	<-s.cron.Stop().Done()
	logger.Info("Vote reconcile scheduler stopped")
}

// RunOnce reconciles posts and replies and returns the number of repaired rows per target.
func (s *VoteReconcileScheduler) RunOnce() (map[model.VoteTarget]int64, error) {
	repaired := make(map[model.VoteTarget]int64, 2)
	for _, target := range []model.VoteTarget{model.VoteTargetPost, model.VoteTargetReply} {
		n, err := s.reconciler.Reconcile(target)
		if err != nil {
			return repaired, fmt.Errorf("reconcile %s votes: %w", target, err)
		}
		repaired[target] = n
		if n > 0 {
			metrics.VoteScoresRepaired.WithLabelValues(string(target)).Add(float64(n))
			logger.Warn("Repaired drifted vote scores", map[string]interface{}{
				"target":   target,
				"repaired": n,
			})
		}
	}
	if repaired[model.VoteTargetReply] > 0 && s.replyCache != nil {
		if err := s.replyCache.InvalidateAll(context.Background()); err != nil {
			logger.Warn("Reply cache flush after reconciliation failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	return repaired, nil
}
