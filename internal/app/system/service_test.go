package system

import (
	"context"
	"errors"
	"testing"
)

type recordingService struct {
	name    string
	log     *[]string
	failure error
}

func (r *recordingService) Name() string { return r.name }

func (r *recordingService) Start(context.Context) error {
	*r.log = append(*r.log, "start:"+r.name)
	return r.failure
}

func (r *recordingService) Stop(context.Context) error {
	*r.log = append(*r.log, "stop:"+r.name)
	return nil
}

func TestManagerStartStopOrder(t *testing.T) {
	var log []string
	m := NewManager()
	for _, name := range []string{"a", "b", "c"} {
		if err := m.Register(&recordingService{name: name, log: &log}); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	ctx := context.Background()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	want := []string{"start:a", "start:b", "start:c", "stop:c", "stop:b", "stop:a"}
	if len(log) != len(want) {
		t.Fatalf("event log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("event %d = %s, want %s", i, log[i], want[i])
		}
	}
}

func TestManagerStartFailureUnwindsStartedServices(t *testing.T) {
	var log []string
	m := NewManager()
	boom := errors.New("boom")
	_ = m.Register(&recordingService{name: "a", log: &log})
	_ = m.Register(&recordingService{name: "b", log: &log, failure: boom})

	if err := m.Start(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("start err = %v, want %v", err, boom)
	}
	want := []string{"start:a", "start:b", "stop:a"}
	if len(log) != len(want) {
		t.Fatalf("event log = %v, want %v", log, want)
	}
}

func TestManagerRejectsDuplicateNames(t *testing.T) {
	m := NewManager()
	if err := m.Register(NoopService{ServiceName: "x"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := m.Register(NoopService{ServiceName: "x"}); err == nil {
		t.Fatal("duplicate register succeeded, want error")
	}
}

func TestManagerRejectsRegisterAfterStart(t *testing.T) {
	m := NewManager()
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Register(NoopService{ServiceName: "late"}); err == nil {
		t.Fatal("register after start succeeded, want error")
	}
}
