package labels

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/labelwire/labelwire/internal/mailbox"
	"github.com/labelwire/labelwire/internal/settings"
	pebblestore "github.com/labelwire/labelwire/internal/storage/pebble"
	"github.com/labelwire/labelwire/pkg/log"
)

type fakeMailbox struct {
	inventory  []string
	applied    []string
	decided    []string
	listCalls  int
	applyError error
}

func (f *fakeMailbox) Scan(ctx context.Context) ([]mailbox.Email, error) { return nil, nil }

func (f *fakeMailbox) ListLabels(ctx context.Context) ([]string, error) {
	f.listCalls++
	return f.inventory, nil
}

func (f *fakeMailbox) ApplyLabel(ctx context.Context, id, label string) error {
	if f.applyError != nil {
		return f.applyError
	}
	for _, l := range f.inventory {
		if l == label {
			f.applied = append(f.applied, id+"/"+label)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", mailbox.ErrUnknownLabel, label)
}

func (f *fakeMailbox) RemoveLabel(ctx context.Context, id, label string) error {
	return f.ApplyLabel(ctx, id, label)
}

func (f *fakeMailbox) MarkDecided(ctx context.Context, id string) error {
	f.decided = append(f.decided, id)
	return nil
}

func newTestService(t *testing.T, box mailbox.Mailbox) (*Service, *settings.Store) {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeNever})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	st := settings.New(db)
	svc := New(box, st, 0, log.NewLogger(log.WithOutput(log.NullOutput{})))
	return svc, st
}

func TestInventorySyncsOnColdCache(t *testing.T) {
	box := &fakeMailbox{inventory: []string{"Urgent", "Archive"}}
	svc, _ := newTestService(t, box)
	ctx := context.Background()

	got, err := svc.Inventory(ctx)
	if err != nil {
		t.Fatalf("inventory: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"Urgent", "Archive"}) {
		t.Fatalf("inventory = %v", got)
	}
	if box.listCalls != 1 {
		t.Fatalf("listCalls = %d, want 1", box.listCalls)
	}

	// Warm cache: no second mailbox call.
	if _, err := svc.Inventory(ctx); err != nil {
		t.Fatalf("inventory: %v", err)
	}
	if box.listCalls != 1 {
		t.Fatalf("listCalls after cache = %d, want 1", box.listCalls)
	}
}

func TestSyncReplacesCache(t *testing.T) {
	box := &fakeMailbox{inventory: []string{"Urgent"}}
	svc, st := newTestService(t, box)
	ctx := context.Background()

	if _, err := svc.Sync(ctx); err != nil {
		t.Fatalf("sync: %v", err)
	}
	box.inventory = []string{"Urgent", "Later"}
	if _, err := svc.Sync(ctx); err != nil {
		t.Fatalf("sync: %v", err)
	}

	c, err := st.Labels()
	if err != nil {
		t.Fatalf("labels: %v", err)
	}
	if !reflect.DeepEqual(c.Labels, []string{"Urgent", "Later"}) {
		t.Fatalf("cache = %v", c.Labels)
	}
}

func TestApplyPartialSuccess(t *testing.T) {
	box := &fakeMailbox{inventory: []string{"Urgent", "Archive"}}
	svc, _ := newTestService(t, box)

	res := svc.Apply(context.Background(), "m1", []string{"Urgent", "Bogus", "Archive"})
	if !reflect.DeepEqual(res.Applied, []string{"Urgent", "Archive"}) {
		t.Fatalf("applied = %v", res.Applied)
	}
	if !reflect.DeepEqual(res.NotFound, []string{"Bogus"}) {
		t.Fatalf("not found = %v", res.NotFound)
	}
	if res.OK() {
		t.Fatalf("result should not be OK")
	}
	if !reflect.DeepEqual(box.applied, []string{"m1/Urgent", "m1/Archive"}) {
		t.Fatalf("mailbox writes = %v", box.applied)
	}
}

func TestApplyRateLimitSpacesWrites(t *testing.T) {
	box := &fakeMailbox{inventory: []string{"A", "B", "C"}}
	svc, _ := newTestService(t, box)
	svc.rateLimit = 50 * time.Millisecond

	var slept time.Duration
	svc.sleep = func(ctx context.Context, d time.Duration) { slept += d }

	res := svc.Apply(context.Background(), "m1", []string{"A", "B", "C"})
	if !res.OK() {
		t.Fatalf("result = %+v", res)
	}
	// Pause between writes, not before the first one.
	if slept != 100*time.Millisecond {
		t.Fatalf("slept = %v, want 100ms", slept)
	}
}

func TestResultSummary(t *testing.T) {
	r := Result{Applied: []string{"A"}, NotFound: []string{"B"}}
	got := r.Summary()
	if got != "applied: A; not found: B" {
		t.Fatalf("summary = %q", got)
	}
	if (Result{}).Summary() != "no labels requested" {
		t.Fatalf("empty summary = %q", (Result{}).Summary())
	}
}
