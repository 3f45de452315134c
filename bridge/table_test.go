package bridge

import (
	"sync"
	"testing"

	clrhost "github.com/hostbridge/clr-host"
)

type testObserver struct {
	mu     sync.Mutex
	events []Event
}

func (o *testObserver) OnHandleEvent(e Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func TestTable_Basic(t *testing.T) {
	table := NewTable()

	h, err := table.Insert("test")
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if h == 0 {
		t.Fatal("expected non-zero handle")
	}

	val, ok := table.Get(h)
	if !ok {
		t.Fatal("Get failed")
	}
	if val != "test" {
		t.Fatalf("expected 'test', got %v", val)
	}

	val, ok = table.Remove(h)
	if !ok {
		t.Fatal("Remove failed")
	}
	if val != "test" {
		t.Fatalf("expected 'test', got %v", val)
	}

	if table.Len() != 0 {
		t.Fatal("expected Len() == 0 after Remove")
	}
}

func TestTable_HandlesNeverReused(t *testing.T) {
	table := NewTable()

	h1, _ := table.Insert("a")
	table.Remove(h1)
	h2, _ := table.Insert("b")

	if h2 == h1 {
		t.Fatalf("handle %d was reused after release", h1)
	}
	if h2 <= h1 {
		t.Fatalf("handles must be monotonic: %d after %d", h2, h1)
	}
}

func TestTable_ZeroHandleInvalid(t *testing.T) {
	table := NewTable()
	if _, ok := table.Get(0); ok {
		t.Fatal("handle 0 must be invalid")
	}
	if _, ok := table.Remove(0); ok {
		t.Fatal("handle 0 must not be removable")
	}
}

func TestTable_RemoveUnknown(t *testing.T) {
	table := NewTable()
	if _, ok := table.Remove(999); ok {
		t.Fatal("expected Remove of never-issued handle to fail")
	}

	h, _ := table.Insert("x")
	table.Remove(h)
	if _, ok := table.Remove(h); ok {
		t.Fatal("expected second Remove of same handle to fail")
	}
}

type disposable struct {
	disposed bool
}

func (d *disposable) Dispose() { d.disposed = true }

func TestTable_DisposerCalledOnRemove(t *testing.T) {
	table := NewTable()
	d := &disposable{}
	h, _ := table.Insert(d)

	table.Remove(h)
	if !d.disposed {
		t.Fatal("Dispose was not called on Remove")
	}
}

func TestTable_Close(t *testing.T) {
	table := NewTable()
	d := &disposable{}
	table.Insert(d)

	if err := table.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !d.disposed {
		t.Fatal("Dispose was not called on Close")
	}

	// Close is idempotent.
	if err := table.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	// No inserts after close.
	if _, err := table.Insert("x"); err == nil {
		t.Fatal("expected Insert after Close to fail")
	}
}

func TestTable_Observer(t *testing.T) {
	table := NewTable()
	obs := &testObserver{}
	table.Subscribe(obs)

	h, _ := table.Insert("test")
	table.Remove(h)

	if len(obs.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(obs.events))
	}
	if obs.events[0].Type != EventCreated || obs.events[0].Handle != h {
		t.Error("wrong created event")
	}
	if obs.events[1].Type != EventReleased || obs.events[1].Handle != h {
		t.Error("wrong released event")
	}

	table.Unsubscribe(obs)
	table.Insert("again")
	if len(obs.events) != 2 {
		t.Fatal("should not receive events after Unsubscribe")
	}
}

func TestTable_ConcurrentAccess(t *testing.T) {
	table := NewTable()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var handles []clrhost.Handle
			for j := 0; j < 100; j++ {
				h, err := table.Insert(j)
				if err != nil {
					t.Error(err)
					return
				}
				handles = append(handles, h)
			}
			for _, h := range handles {
				if _, ok := table.Remove(h); !ok {
					t.Errorf("lost handle %d", h)
					return
				}
			}
		}()
	}
	wg.Wait()

	if table.Len() != 0 {
		t.Fatalf("expected empty table, got %d entries", table.Len())
	}
}
