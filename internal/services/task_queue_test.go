package services

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestJobTypeClassify_Constant(t *testing.T) {
	if JobTypeClassify != "classify:task" {
		t.Errorf("JobTypeClassify = %q, expected %q", JobTypeClassify, "classify:task")
	}
}

func TestSyncQueue_RunsProcessor(t *testing.T) {
	q := NewSyncQueue()

	var mu sync.Mutex
	var got *ClassifyJob
	done := make(chan struct{})

	q.SetProcessor(func(ctx context.Context, job *ClassifyJob) error {
		mu.Lock()
		got = job
		mu.Unlock()
		close(done)
		return nil
	})

	if err := q.Enqueue(&ClassifyJob{TaskID: 7, Queue: "text_club"}); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("processor was not invoked")
	}

	mu.Lock()
	defer mu.Unlock()
	if got.TaskID != 7 {
		t.Errorf("TaskID = %d, expected 7", got.TaskID)
	}
	if got.Queue != "text_club" {
		t.Errorf("Queue = %q, expected %q", got.Queue, "text_club")
	}
}

func TestSyncQueue_NoProcessorDoesNotPanic(t *testing.T) {
	q := NewSyncQueue()
	if err := q.Enqueue(&ClassifyJob{TaskID: 1}); err != nil {
		t.Errorf("Enqueue() without processor should drop silently, got %v", err)
	}
}

func TestSyncQueue_IsAsync(t *testing.T) {
	if NewSyncQueue().IsAsync() {
		t.Error("SyncQueue.IsAsync() should be false")
	}
}
