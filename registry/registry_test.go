// Copyright 2025 Drivergate
// SPDX-License-Identifier: BUSL-1.1

package registry

import (
	"context"
	"errors"
	"math"
	"testing"

	"drivergate/driver"
)

type mockDriver struct {
	name string
}

func (d *mockDriver) AcceptsURL(url string) bool { return false }

func (d *mockDriver) Connect(ctx context.Context, url string, props driver.Properties) (driver.Conn, error) {
	return nil, nil
}

func (d *mockDriver) MajorVersion() int { return 1 }
func (d *mockDriver) MinorVersion() int { return 0 }

type mockPublication struct {
	capability Capability
	retracted  bool
}

func (p *mockPublication) Retract() { p.retracted = true }

type mockPublisher struct {
	publications []*mockPublication
}

func (p *mockPublisher) Publish(c Capability) Publication {
	pub := &mockPublication{capability: c}
	p.publications = append(p.publications, pub)
	return pub
}

func (p *mockPublisher) active() int {
	count := 0
	for _, pub := range p.publications {
		if !pub.retracted {
			count++
		}
	}
	return count
}

func TestRegisterIsIdempotent(t *testing.T) {
	r := New()
	d := &mockDriver{name: "d"}
	firstCalls, secondCalls := 0, 0

	r.Register(1, d, func() { firstCalls++ })
	r.Register(2, d, func() { secondCalls++ })

	if got := len(r.Drivers()); got != 1 {
		t.Fatalf("expected 1 driver, got %d", got)
	}

	// The first owner keeps the registration; only its callback runs.
	r.Unregister(1, d)
	if firstCalls != 1 || secondCalls != 0 {
		t.Fatalf("expected first callback only, got first=%d second=%d", firstCalls, secondCalls)
	}
}

func TestUnregisterChecksOwner(t *testing.T) {
	r := New()
	d := &mockDriver{name: "d"}
	calls := 0

	r.Register(1, d, func() { calls++ })
	r.Unregister(2, d)

	if got := len(r.Drivers()); got != 1 {
		t.Fatalf("expected registration to survive foreign unregister, got %d drivers", got)
	}
	if calls != 0 {
		t.Fatal("expected no callback for foreign unregister")
	}
}

func TestCancelModuleRemovesOnlyItsRecords(t *testing.T) {
	r := New()
	mine := &mockDriver{name: "mine"}
	other := &mockDriver{name: "other"}
	cancelled := 0

	r.Register(1, mine, func() { cancelled++ })
	r.Register(2, other, nil)

	if err := r.CancelModule(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled != 1 {
		t.Fatalf("expected 1 callback, got %d", cancelled)
	}

	drivers := r.Drivers()
	if len(drivers) != 1 || drivers[0] != driver.Driver(other) {
		t.Fatalf("expected only the other module's driver, got %v", drivers)
	}

	// Cancelling again finds nothing and must not run callbacks again.
	if err := r.CancelModule(1); err != nil {
		t.Fatalf("unexpected error on repeated cancel: %v", err)
	}
	if cancelled != 1 {
		t.Fatalf("expected callbacks to run once, ran %d times", cancelled)
	}
}

func TestCancelModuleAggregatesCallbackFailures(t *testing.T) {
	r := New()
	ok := 0

	r.Register(1, &mockDriver{name: "a"}, func() { panic("a failed") })
	r.Register(1, &mockDriver{name: "b"}, func() { ok++ })
	r.Register(1, &mockDriver{name: "c"}, func() { panic("c failed") })

	err := r.CancelModule(1)
	if err == nil {
		t.Fatal("expected an aggregate error")
	}

	var cancelErr *CancelError
	if !errors.As(err, &cancelErr) {
		t.Fatalf("expected CancelError, got %T", err)
	}
	if cancelErr.ModuleID != 1 {
		t.Fatalf("expected module 1, got %d", cancelErr.ModuleID)
	}
	if ok != 1 {
		t.Fatalf("expected surviving callback to run despite failures, ran %d times", ok)
	}
	if len(r.Drivers()) != 0 {
		t.Fatal("expected all records removed despite callback failures")
	}
}

func TestSuspendResumeTogglesPublication(t *testing.T) {
	r := New()
	p := &mockPublisher{}
	r.Bind(p)

	r.Register(1, &mockDriver{name: "d"}, nil)
	if p.active() != 1 {
		t.Fatalf("expected 1 publication after register, got %d", p.active())
	}

	r.Suspend(1)
	r.Suspend(1)
	if p.active() != 0 {
		t.Fatalf("expected publication retracted on suspend, got %d", p.active())
	}
	if len(r.Drivers()) != 1 {
		t.Fatal("expected registration to survive suspension")
	}

	r.Resume(1)
	r.Resume(1)
	if p.active() != 1 {
		t.Fatalf("expected 1 publication after resume, got %d", p.active())
	}
	if len(p.publications) != 2 {
		t.Fatalf("expected exactly 2 publish calls, got %d", len(p.publications))
	}
}

func TestRegisterWhileSuspendedStaysConcealed(t *testing.T) {
	r := New()
	p := &mockPublisher{}
	r.Bind(p)

	r.Suspend(1)
	r.Register(1, &mockDriver{name: "d"}, nil)
	if p.active() != 0 {
		t.Fatalf("expected no publication while suspended, got %d", p.active())
	}

	r.Resume(1)
	if p.active() != 1 {
		t.Fatalf("expected publication after resume, got %d", p.active())
	}
}

func TestBindPublishesExistingRegistrations(t *testing.T) {
	r := New()
	r.Register(1, &mockDriver{name: "a"}, nil)
	r.Register(2, &mockDriver{name: "b"}, nil)
	r.Suspend(2)

	p := &mockPublisher{}
	r.Bind(p)
	if p.active() != 1 {
		t.Fatalf("expected only non-suspended registrations published, got %d", p.active())
	}

	r.Release()
	if p.active() != 0 {
		t.Fatalf("expected all publications retracted on release, got %d", p.active())
	}
}

func TestRankedOrdering(t *testing.T) {
	r := New()
	low := &mockDriver{name: "low"}
	high := &mockDriver{name: "high"}
	first := &mockDriver{name: "first"}
	second := &mockDriver{name: "second"}

	r.Register(1, first, nil)
	r.Register(1, second, nil)
	r.Register(1, low, nil)
	r.Register(1, high, nil)
	r.SetRank(high, 10)
	r.SetRank(low, -10)

	drivers := r.Drivers()
	want := []driver.Driver{high, first, second, low}
	if len(drivers) != len(want) {
		t.Fatalf("expected %d drivers, got %d", len(want), len(drivers))
	}
	for i := range want {
		if drivers[i] != want[i] {
			t.Fatalf("position %d: expected %v, got %v", i, want[i], drivers[i])
		}
	}
}

func TestRankedOrderingAtExtremeRanks(t *testing.T) {
	r := New()
	lowest := &mockDriver{name: "lowest"}
	highest := &mockDriver{name: "highest"}

	r.Register(1, lowest, nil)
	r.Register(1, highest, nil)
	r.SetRank(lowest, math.MinInt)
	r.SetRank(highest, math.MaxInt)

	drivers := r.Drivers()
	if len(drivers) != 2 {
		t.Fatalf("expected 2 drivers, got %d", len(drivers))
	}
	if drivers[0] != driver.Driver(highest) {
		t.Fatal("expected highest-ranked driver first")
	}
	if drivers[1] != driver.Driver(lowest) {
		t.Fatal("expected lowest-ranked driver last")
	}
}

func TestSnapshotReportsPublicationState(t *testing.T) {
	r := New()
	p := &mockPublisher{}
	r.Bind(p)

	r.Register(1, &mockDriver{name: "a"}, nil)
	r.Register(2, &mockDriver{name: "b"}, nil)
	r.Suspend(2)

	snapshot := r.Snapshot()
	if len(snapshot) != 2 {
		t.Fatalf("expected 2 records, got %d", len(snapshot))
	}

	published := 0
	for _, info := range snapshot {
		if info.Published {
			published++
		}
	}
	if published != 1 {
		t.Fatalf("expected 1 published record, got %d", published)
	}
}

func TestCapabilityMetadata(t *testing.T) {
	r := New()
	p := &mockPublisher{}
	r.Bind(p)

	d := &mockDriver{name: "d"}
	r.Register(7, d, nil)

	if len(p.publications) != 1 {
		t.Fatalf("expected 1 publication, got %d", len(p.publications))
	}
	c := p.publications[0].capability
	if c.ModuleID != 7 || c.Driver != driver.Driver(d) || c.ID == "" {
		t.Fatalf("unexpected capability: %+v", c)
	}
	if c.Version != "1.0" {
		t.Fatalf("expected version 1.0, got %s", c.Version)
	}
}
