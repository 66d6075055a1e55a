package flp

import (
	"math"
	"testing"
)

func TestHaversineKm(t *testing.T) {
	if got := HaversineKm(50.7374, 7.0982, 50.7374, 7.0982); got != 0 {
		t.Errorf("distance to itself = %g, want 0", got)
	}

	// one degree of longitude on the equator
	oneDeg := HaversineKm(0, 0, 0, 1)
	want := 2 * math.Pi * EARTH_RADIUS_KM / 360
	if math.Abs(oneDeg-want) > 0.01 {
		t.Errorf("one degree on the equator = %g, want %g", oneDeg, want)
	}

	bonnBerlin := HaversineKm(50.7374, 7.0982, 52.5200, 13.4050)
	if bonnBerlin < 460 || bonnBerlin > 500 {
		t.Errorf("Bonn-Berlin = %g km, want roughly 478", bonnBerlin)
	}
	if back := HaversineKm(52.5200, 13.4050, 50.7374, 7.0982); math.Abs(back-bonnBerlin) > 1e-9 {
		t.Errorf("distance is not symmetric: %g vs %g", bonnBerlin, back)
	}
}

func TestCostModelUnitCost(t *testing.T) {
	cm := DefaultCostModel()

	tests := []struct {
		name    string
		distKm  float64
		service string
		want    float64
	}{
		{"short haul", 500, SERVICE_STANDARD, 500},
		{"medium haul", 1500, SERVICE_STANDARD, 1650},
		{"long haul", 2500, SERVICE_STANDARD, 3250},
		{"medium boundary stays short", 1000, SERVICE_STANDARD, 1000},
		{"long boundary stays medium", 2000, SERVICE_STANDARD, 2200},
		{"express", 500, SERVICE_EXPRESS, 900},
		{"overnight long haul", 2500, SERVICE_OVERNIGHT, 9750},
		{"unknown service level", 500, "PIGEON", 500},
		{"empty service level", 500, "", 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cm.UnitCost(tt.distKm, tt.service)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("UnitCost(%g, %q) = %g, want %g", tt.distKm, tt.service, got, tt.want)
			}
		})
	}
}
