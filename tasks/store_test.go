package tasks

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func newStoredTask(id string) *Task {
	return &Task{
		ID:        id,
		Message:   "hello",
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}
}

func TestStoreSetGet(t *testing.T) {
	store := NewStore()

	store.Set("t1", newStoredTask("t1"))

	got, ok := store.Get("t1")
	if !ok {
		t.Fatal("Expected task to be found")
	}
	if got.ID != "t1" || got.Message != "hello" {
		t.Errorf("Unexpected task: %+v", got)
	}
	if got.Status != StatusPending {
		t.Errorf("Expected pending, got %s", got.Status)
	}

	if _, ok := store.Get("missing"); ok {
		t.Error("Expected missing task to not be found")
	}
}

func TestStoreGetReturnsCopy(t *testing.T) {
	store := NewStore()
	task := newStoredTask("t1")
	task.Metadata = map[string]interface{}{"channel": "#general"}
	store.Set("t1", task)

	got, _ := store.Get("t1")
	got.Status = StatusFailed
	got.Metadata["channel"] = "#random"

	// Mutating the copy must not touch the stored record.
	again, _ := store.Get("t1")
	if again.Status != StatusPending {
		t.Errorf("Stored status mutated through a copy: %s", again.Status)
	}
	if again.Metadata["channel"] != "#general" {
		t.Errorf("Stored metadata mutated through a copy: %v", again.Metadata)
	}

	// Same for the record handed to Set.
	task.Message = "mutated"
	again, _ = store.Get("t1")
	if again.Message != "hello" {
		t.Errorf("Stored message mutated through Set argument: %s", again.Message)
	}
}

func TestStoreDelete(t *testing.T) {
	store := NewStore()
	store.Set("t1", newStoredTask("t1"))

	if !store.Delete("t1") {
		t.Error("Expected delete of existing task to return true")
	}
	if store.Delete("t1") {
		t.Error("Expected delete of missing task to return false")
	}
	if _, ok := store.Get("t1"); ok {
		t.Error("Expected task to be gone after delete")
	}
}

func TestStoreListAll(t *testing.T) {
	store := NewStore()
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("t%d", i)
		store.Set(id, newStoredTask(id))
	}

	all := store.ListAll()
	if len(all) != 5 {
		t.Errorf("Expected 5 tasks, got %d", len(all))
	}
}

func TestStoreListByStatus(t *testing.T) {
	store := NewStore()
	for i := 0; i < 6; i++ {
		id := fmt.Sprintf("t%d", i)
		task := newStoredTask(id)
		if i%2 == 0 {
			task.Status = StatusCompleted
		}
		store.Set(id, task)
	}

	completed := store.ListByStatus(StatusCompleted)
	if len(completed) != 3 {
		t.Errorf("Expected 3 completed tasks, got %d", len(completed))
	}
	for _, task := range completed {
		if task.Status != StatusCompleted {
			t.Errorf("Filter returned task with status %s", task.Status)
		}
	}

	if got := store.ListByStatus(StatusFailed); len(got) != 0 {
		t.Errorf("Expected no failed tasks, got %d", len(got))
	}
}

func TestStoreUpdateStatus(t *testing.T) {
	store := NewStore()
	store.Set("t1", newStoredTask("t1"))

	if !store.UpdateStatus("t1", StatusRunning, nil) {
		t.Fatal("Expected update of existing task to succeed")
	}
	got, _ := store.Get("t1")
	if got.Status != StatusRunning {
		t.Errorf("Expected running, got %s", got.Status)
	}
	if got.Result != nil {
		t.Error("Expected no result after status-only update")
	}

	result := &Result{Success: true, Message: "done"}
	store.UpdateStatus("t1", StatusCompleted, result)
	got, _ = store.Get("t1")
	if got.Status != StatusCompleted || got.Result == nil || !got.Result.Success {
		t.Errorf("Expected completed with result, got %+v", got)
	}

	if store.UpdateStatus("missing", StatusRunning, nil) {
		t.Error("Expected update of missing task to return false")
	}
}

func TestStoreBeginExecution(t *testing.T) {
	store := NewStore()
	store.Set("t1", newStoredTask("t1"))

	task, started, found := store.beginExecution("t1")
	if !found || !started {
		t.Fatalf("Expected claim of pending task, got started=%v found=%v", started, found)
	}
	if task.Status != StatusPending {
		// The returned snapshot reflects the pre-claim record.
		t.Logf("snapshot status: %s", task.Status)
	}

	got, _ := store.Get("t1")
	if got.Status != StatusRunning {
		t.Errorf("Expected running after claim, got %s", got.Status)
	}

	// Second claim must fail: the task is already running.
	_, started, found = store.beginExecution("t1")
	if !found {
		t.Fatal("Expected task to be found")
	}
	if started {
		t.Error("Expected second claim to be rejected")
	}

	if _, _, found := store.beginExecution("missing"); found {
		t.Error("Expected claim of missing task to report not found")
	}
}

func TestStoreFinishDoesNotResurrectCancelled(t *testing.T) {
	store := NewStore()
	task := newStoredTask("t1")
	task.Status = StatusCancelled
	task.Result = &Result{Success: false, Message: CancelledMessage}
	store.Set("t1", task)

	ok := store.finish("t1", StatusCompleted, &Result{Success: true, Message: "late"})
	if ok {
		t.Error("Expected finish on cancelled task to be rejected")
	}

	got, _ := store.Get("t1")
	if got.Status != StatusCancelled {
		t.Errorf("Cancelled task resurrected to %s", got.Status)
	}
	if got.Result.Message != CancelledMessage {
		t.Errorf("Cancelled result overwritten: %s", got.Result.Message)
	}
}

func TestStoreCancelActive(t *testing.T) {
	store := NewStore()
	statuses := []Status{StatusPending, StatusRunning, StatusRetrying, StatusCompleted, StatusFailed}
	for i, st := range statuses {
		id := fmt.Sprintf("t%d", i)
		task := newStoredTask(id)
		task.Status = st
		store.Set(id, task)
	}

	cancelled := store.cancelActive(&Result{Success: false, Message: CancelledMessage})
	if len(cancelled) != 3 {
		t.Errorf("Expected 3 cancelled tasks, got %d", len(cancelled))
	}

	for _, task := range store.ListAll() {
		switch task.ID {
		case "t3":
			if task.Status != StatusCompleted {
				t.Errorf("Completed task disturbed: %s", task.Status)
			}
		case "t4":
			if task.Status != StatusFailed {
				t.Errorf("Failed task disturbed: %s", task.Status)
			}
		default:
			if task.Status != StatusCancelled {
				t.Errorf("%s: expected cancelled, got %s", task.ID, task.Status)
			}
			if task.Result == nil || task.Result.Message != CancelledMessage {
				t.Errorf("%s: missing cancellation result", task.ID)
			}
		}
	}
}

func TestStoreConcurrentWritesSameID(t *testing.T) {
	store := NewStore()
	store.Set("t1", newStoredTask("t1"))

	const writers = 50
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			store.recordFailure("t1", "boom")
		}()
	}
	wg.Wait()

	got, _ := store.Get("t1")
	// Serialized writes mean no lost updates.
	if got.RetryCount != writers {
		t.Errorf("Expected retry count %d, got %d", writers, got.RetryCount)
	}
}

func TestStoreConcurrentReadersAndWriters(t *testing.T) {
	store := NewStore()
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("t%d", i)
		store.Set(id, newStoredTask(id))
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				for _, task := range store.ListAll() {
					// A reader must never observe a result inconsistent
					// with a terminal status.
					if task.Status == StatusCompleted && task.Result == nil {
						t.Error("observed completed task without result")
						return
					}
				}
			}
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			id := fmt.Sprintf("t%d", i)
			store.finish(id, StatusCompleted, &Result{Success: true, Message: "done"})
		}
		close(done)
	}()

	wg.Wait()
}
