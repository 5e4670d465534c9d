package navigate

import (
	"testing"
	"time"

	"indoornav/geometry"
	"indoornav/storemap"
)

const straightLineMap = `{
  "id":"x","gridSize":50,"nodes":[{"id":"a","x":0,"y":0},{"id":"b","x":10,"y":0}],
  "edges":[{"from":"a","to":"b"}]
}`

func TestRerouteTriggersAfterPersistAndThrottle(t *testing.T) {
	sm, err := storemap.Load([]byte(straightLineMap))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	svc := New()
	svc.SetReroute(RerouteConfig{OffRouteMeters: 2, PersistMs: 3000})

	base := time.Unix(0, 0)
	svc.SetMap(sm, geometry.Point2{X: 0, Y: 0}, base)
	svc.SetEnabled(true, geometry.Point2{X: 0, Y: 0}, base)
	svc.SetDestination("b", geometry.Point2{X: 0, Y: 0}, base)

	off := geometry.Point2{X: 5, Y: 2.5}

	st := svc.UpdatePosition(off, base)
	if !st.OffRoute {
		t.Fatal("expected off-route at t=0")
	}
	recalcAt0 := svc.lastRecalc

	st = svc.UpdatePosition(off, base.Add(2999*time.Millisecond))
	if svc.lastRecalc != recalcAt0 {
		t.Fatal("expected no recalc before persistMs elapses")
	}

	st = svc.UpdatePosition(off, base.Add(3001*time.Millisecond))
	if svc.lastRecalc == recalcAt0 {
		t.Fatal("expected a recalc once persistMs has elapsed")
	}
	_ = st
}

func TestUpdatePositionWithNoRouteReturnsSelectDestination(t *testing.T) {
	svc := New()
	st := svc.UpdatePosition(geometry.Point2{X: 0, Y: 0}, time.Now())
	if st.NextInstruction != "Select a destination" {
		t.Fatalf("instruction = %q, want 'Select a destination'", st.NextInstruction)
	}
}

func TestHistoryCapsAtFive(t *testing.T) {
	sm, err := storemap.Load([]byte(straightLineMap))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	svc := New()
	now := time.Now()
	svc.SetMap(sm, geometry.Point2{X: 0, Y: 0}, now)
	svc.SetEnabled(true, geometry.Point2{X: 0, Y: 0}, now)
	for i := 0; i < 8; i++ {
		svc.SetDestination("b", geometry.Point2{X: 0, Y: 0}, now.Add(time.Duration(i)*time.Second))
	}
	if len(svc.History()) != historyCapacity {
		t.Fatalf("history length = %d, want %d", len(svc.History()), historyCapacity)
	}
}
