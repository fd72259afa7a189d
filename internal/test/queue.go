package test

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/autoorder/internal/domain/errors"
	"github.com/polkiloo/autoorder/internal/domain/model"
	"github.com/polkiloo/autoorder/internal/domain/repository"
)

// QueueRepositoryStub keeps queue items in memory in insertion order.
// Now, when set, decides which retry items are due.
type QueueRepositoryStub struct {
	mu sync.Mutex

	Items      []*model.QueueItem
	Activities []model.ActivityLog
	Events     []model.FulfillmentEvent
	Now        func() time.Time

	EnqueueErr error
	ClaimErr   error
	SettleErr  error
	ListErr    error
}

func NewQueueRepositoryStub() *QueueRepositoryStub {
	return &QueueRepositoryStub{}
}

func (s *QueueRepositoryStub) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *QueueRepositoryStub) find(id uuid.UUID) *model.QueueItem {
	for _, item := range s.Items {
		if item.ID == id {
			return item
		}
	}
	return nil
}

// Get returns a copy of the stored item.
func (s *QueueRepositoryStub) Get(id uuid.UUID) (model.QueueItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := s.find(id)
	if item == nil {
		return model.QueueItem{}, false
	}
	return *item, true
}

func (s *QueueRepositoryStub) Enqueue(_ context.Context, item model.QueueItem, activity model.ActivityLog) (*model.QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.EnqueueErr != nil {
		return nil, s.EnqueueErr
	}
	for _, existing := range s.Items {
		if existing.OrderID != item.OrderID || !existing.Status.Active() {
			continue
		}
		if existing.UserID != item.UserID {
			return nil, domainErrors.ErrNotFound
		}
		found := *existing
		return &found, domainErrors.ErrAlreadyQueued
	}
	item.Status = model.QueuePending
	stored := item
	s.Items = append(s.Items, &stored)
	s.Activities = append(s.Activities, activity)
	return &item, nil
}

func (s *QueueRepositoryStub) ClaimDue(_ context.Context, limit int, lease time.Duration) ([]model.QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ClaimErr != nil {
		return nil, s.ClaimErr
	}
	now := s.now()
	var out []model.QueueItem
	for _, item := range s.Items {
		if len(out) >= limit {
			break
		}
		due := item.Status == model.QueuePending ||
			(item.Status == model.QueueRetry && item.NextRetryAt != nil && !item.NextRetryAt.After(now)) ||
			(item.Status == model.QueueProcessing && item.UpdatedAt.Before(now.Add(-lease)))
		if !due {
			continue
		}
		item.Status = model.QueueProcessing
		item.UpdatedAt = now
		out = append(out, *item)
	}
	return out, nil
}

func (s *QueueRepositoryStub) Settle(_ context.Context, item model.QueueItem, event *model.FulfillmentEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SettleErr != nil {
		return s.SettleErr
	}
	stored := s.find(item.ID)
	if stored == nil || stored.Status != model.QueueProcessing {
		return domainErrors.ErrQueueState
	}
	item.UpdatedAt = s.now()
	*stored = item
	if event != nil {
		s.Events = append(s.Events, *event)
	}
	return nil
}

// List returns the newest items first.
func (s *QueueRepositoryStub) List(_ context.Context, userID int64, orderID string, limit int) ([]model.QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	out := []model.QueueItem{}
	for _, item := range slices.Backward(s.Items) {
		if len(out) >= limit {
			break
		}
		if item.UserID == userID && (orderID == "" || item.OrderID == orderID) {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *QueueRepositoryStub) Cancel(_ context.Context, userID int64, id uuid.UUID) (*model.QueueItem, error) {
	return s.transition(userID, id, model.QueueCancelled, model.QueuePending, model.QueueRetry)
}

func (s *QueueRepositoryStub) RetryNow(_ context.Context, userID int64, id uuid.UUID) (*model.QueueItem, error) {
	return s.transition(userID, id, model.QueuePending, model.QueueFailed)
}

func (s *QueueRepositoryStub) transition(userID int64, id uuid.UUID, to model.QueueStatus, from ...model.QueueStatus) (*model.QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := s.find(id)
	if item == nil || item.UserID != userID {
		return nil, domainErrors.ErrNotFound
	}
	if !slices.Contains(from, item.Status) {
		return nil, domainErrors.ErrQueueState
	}
	item.Status = to
	item.NextRetryAt = nil
	out := *item
	return &out, nil
}

var _ repository.QueueRepository = (*QueueRepositoryStub)(nil)
