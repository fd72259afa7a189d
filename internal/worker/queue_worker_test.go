package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/polkiloo/autoorder/internal/domain/model"
	testhelpers "github.com/polkiloo/autoorder/internal/test"
)

func waitForPasses(t *testing.T, facade *testhelpers.QueueProcessorStub, n int) {
	t.Helper()
	deadline := time.After(time.Second)
	for facade.Passes() < n {
		select {
		case <-deadline:
			t.Fatalf("timeout waiting for %d queue passes", n)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestQueueWorkerRunsPasses(t *testing.T) {
	facade := &testhelpers.QueueProcessorStub{Report: &model.QueueReport{
		Processed: 1,
		Results:   []model.QueueResult{{ID: uuid.New(), OrderID: "o-1", Status: model.QueueFailed, Error: "out of stock"}},
	}}
	w := NewQueueWorker(facade, 5*time.Millisecond, discardLogger())

	w.Start(context.Background())
	waitForPasses(t, facade, 2)
	w.Stop()

	passes := facade.Passes()
	time.Sleep(20 * time.Millisecond)
	if facade.Passes() != passes {
		t.Fatal("expected no passes after Stop")
	}
}

func TestQueueWorkerSurvivesFailedPass(t *testing.T) {
	var calls int32
	facade := &testhelpers.QueueProcessorStub{
		ProcessFn: func(context.Context) (*model.QueueReport, error) {
			if atomic.AddInt32(&calls, 1) == 1 {
				return nil, errors.New("db down")
			}
			return &model.QueueReport{}, nil
		},
	}
	w := NewQueueWorker(facade, 5*time.Millisecond, discardLogger())

	w.Start(context.Background())
	waitForPasses(t, facade, 3)
	w.Stop()
}

func TestQueueWorkerDisabled(t *testing.T) {
	facade := &testhelpers.QueueProcessorStub{}
	w := NewQueueWorker(facade, 0, discardLogger())
	w.Start(context.Background())
	time.Sleep(10 * time.Millisecond)
	w.Stop()
	if facade.Passes() != 0 {
		t.Fatalf("expected disabled worker to stay idle, got %d passes", facade.Passes())
	}
}

func TestQueueWorkerRestart(t *testing.T) {
	facade := &testhelpers.QueueProcessorStub{}
	w := NewQueueWorker(facade, 5*time.Millisecond, discardLogger())

	w.Start(context.Background())
	w.Start(context.Background())
	waitForPasses(t, facade, 1)
	w.Stop()

	before := facade.Passes()
	w.Start(context.Background())
	waitForPasses(t, facade, before+1)
	w.Stop()
}
