package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/aferreira-dev/socialio-backend/pkg/logger"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fakeRetentionRepo struct {
	cutoff  time.Time
	deleted int64
	err     error
}

func (f *fakeRetentionRepo) DeletePublishedBefore(_ context.Context, _ *gorm.DB, cutoff time.Time) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.cutoff = cutoff
	return f.deleted, nil
}

func TestOutboxRetentionJobComputesCutoff(t *testing.T) {
	repo := &fakeRetentionRepo{deleted: 3}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "cron-test"}),
		DB:         fakeTxRunner{},
		Repository: repo,
		Retention:  7,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	job.(*outboxRetentionJob).now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := now.Add(-7 * 24 * time.Hour)
	if !repo.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, repo.cutoff)
	}
}

func TestOutboxRetentionJobDefaultsRetention(t *testing.T) {
	repo := &fakeRetentionRepo{}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "cron-test"}),
		DB:         fakeTxRunner{},
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if job.(*outboxRetentionJob).retention != outboxRetentionDays {
		t.Fatalf("expected default retention %d, got %d", outboxRetentionDays, job.(*outboxRetentionJob).retention)
	}
}

func TestOutboxRetentionJobSurfacesRepoError(t *testing.T) {
	repo := &fakeRetentionRepo{err: errors.New("db gone")}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "cron-test"}),
		DB:         fakeTxRunner{},
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected delete failure to surface")
	}
}
