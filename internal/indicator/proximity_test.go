package indicator

import (
	"testing"

	"cyclewatch/internal/model"
)

func TestProximity_Calculator(t *testing.T) {
	p, ok := Proximity(100000, 55000)
	if !ok || !approx(p, 90.9090909090909) {
		t.Errorf("expected ~90.9, got %.4f ok=%v", p, ok)
	}

	p, ok = Proximity(130000, 60000)
	if !ok || p != 100 {
		t.Errorf("expected cap at 100, got %.4f", p)
	}

	if _, ok := Proximity(100000, 0); ok {
		t.Error("expected !ok for zero long average")
	}
}

func TestProximity_Classify(t *testing.T) {
	r := ClassifyProximity(model.PricePoint{Date: "d", CycleProximity: f(99)})
	if r.Signal != TopSignal || r.Reason == "" {
		t.Errorf("expected TOP_SIGNAL at 99, got %s", r.Signal)
	}

	r = ClassifyProximity(model.PricePoint{Date: "d", CycleProximity: f(150)})
	if *r.Proximity != 100 {
		t.Errorf("expected supplied proximity capped at 100, got %.1f", *r.Proximity)
	}

	r = ClassifyProximity(model.PricePoint{Date: "d", CycleProximity: f(97.9)})
	if r.Signal != ExtremeNeutral {
		t.Errorf("expected NEUTRAL below %.0f, got %s", ProximityTopLevel, r.Signal)
	}

	r = ClassifyProximity(model.PricePoint{Date: "d", DMAShort: f(110000), DMALong: f(55000)})
	if r.Proximity == nil || *r.Proximity != 100 || r.Signal != TopSignal {
		t.Errorf("expected derived proximity 100 and TOP_SIGNAL, got %+v", r)
	}

	r = ClassifyProximity(model.PricePoint{Date: "d", DMAShort: f(110000)})
	if r.Proximity != nil || r.Signal != ExtremeNeutral {
		t.Errorf("expected no proximity with one average, got %+v", r)
	}
}
