package flp

import "math"

const EARTH_RADIUS_KM = 6371.0

// HaversineKm returns the great-circle distance between two coordinates in
// kilometers.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180.0
	dLon := (lon2 - lon1) * math.Pi / 180.0
	rLat1 := lat1 * math.Pi / 180.0
	rLat2 := lat2 * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EARTH_RADIUS_KM * c
}

// CostModel turns a shipping distance into a per-ton lane cost. Longer hauls
// get a surcharge factor, faster service levels a multiplier.
type CostModel struct {
	RatePerTonKm     float64            `json:"rate_per_ton_km"`
	MediumHaulKm     float64            `json:"medium_haul_km"`
	LongHaulKm       float64            `json:"long_haul_km"`
	MediumHaulFactor float64            `json:"medium_haul_factor"`
	LongHaulFactor   float64            `json:"long_haul_factor"`
	ServiceFactors   map[string]float64 `json:"service_factors"`
}

func DefaultCostModel() CostModel {
	return CostModel{
		RatePerTonKm:     1.0,
		MediumHaulKm:     1000.0,
		LongHaulKm:       2000.0,
		MediumHaulFactor: 1.1,
		LongHaulFactor:   1.3,
		ServiceFactors: map[string]float64{
			SERVICE_STANDARD:  1.0,
			SERVICE_EXPRESS:   1.8,
			SERVICE_OVERNIGHT: 3.0,
		},
	}
}

// UnitCost prices one ton over distKm for the given service level. Unknown
// service levels fall back to the standard factor.
func (cm CostModel) UnitCost(distKm float64, serviceLevel string) float64 {
	cost := cm.RatePerTonKm * distKm
	if distKm > cm.LongHaulKm {
		cost *= cm.LongHaulFactor
	} else if distKm > cm.MediumHaulKm {
		cost *= cm.MediumHaulFactor
	}
	if f, ok := cm.ServiceFactors[serviceLevel]; ok {
		cost *= f
	}
	return cost
}
