package indicator

import (
	"testing"

	"cyclewatch/internal/model"
)

func TestFloor_Classification(t *testing.T) {
	cases := []struct {
		price, ma float64
		signal    FloorSignal
		buyZone   bool
	}{
		{15500, 21000, FloorAbsoluteBuy, true},
		{100, 100, FloorAbsoluteBuy, true},
		{22000, 21000, FloorStrongBuy, true},
		{110, 100, FloorStrongBuy, true},
		{120, 100, FloorBuyZone, true},
		{125, 100, FloorBuyZone, true},
		{126, 100, FloorNeutral, false},
		{88890, 46000, FloorNeutral, false},
	}
	for _, tc := range cases {
		r := ClassifyFloor(model.PricePoint{Date: "d", Price: tc.price, MA200: f(tc.ma)})
		if r.Signal != tc.signal || r.BuyZone != tc.buyZone {
			t.Errorf("price=%.0f ma=%.0f: expected %s/%v, got %s/%v", tc.price, tc.ma, tc.signal, tc.buyZone, r.Signal, r.BuyZone)
		}
		if r.PercentAbove == nil {
			t.Fatalf("price=%.0f: expected percentAbove", tc.price)
		}
		if tc.buyZone && r.Reason == "" {
			t.Errorf("price=%.0f: expected a reason in the buy zone", tc.price)
		}
	}
}

func TestFloor_PercentAbove(t *testing.T) {
	r := ClassifyFloor(model.PricePoint{Date: "2026-01", Price: 88890, MA200: f(46000)})
	if !approx(*r.PercentAbove, (88890.0-46000.0)/46000.0*100) {
		t.Errorf("unexpected percentAbove %.4f", *r.PercentAbove)
	}
}

func TestFloor_NoData(t *testing.T) {
	r := ClassifyFloor(model.PricePoint{Date: "d", Price: 100})
	if r.Signal != FloorNoData || r.BuyZone || r.PercentAbove != nil {
		t.Errorf("expected NO_DATA without buy zone, got %+v", r)
	}
}

func TestDropToFloor(t *testing.T) {
	d, ok := DropToFloor(100000, f(40000))
	if !ok {
		t.Fatal("expected ok")
	}
	if !approx(d.DropPercent, 60) || d.FloorPrice != 40000 {
		t.Errorf("expected 60%% drop to 40000, got %+v", d)
	}
	if _, ok := DropToFloor(100000, nil); ok {
		t.Error("expected !ok without ma200")
	}
	if _, ok := DropToFloor(0, f(1)); ok {
		t.Error("expected !ok for non-positive price")
	}
}
