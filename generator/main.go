package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"git.solver4all.com/azaryc2s/flp"
)

var (
	facilityCounts flp.ArrayIntFlags
	pointCounts    flp.ArrayIntFlags

	name      *string
	outputDir *string
	count     *int
	seed      *int64
	cities    *bool
	capFrac   *float64
)

// usCities are the major US demand centers with their populations.
var usCities = []flp.DemandPoint{
	{ID: "New_York", Name: "New York", Lat: 40.7128, Lon: -74.0060, Population: 8400000},
	{ID: "Los_Angeles", Name: "Los Angeles", Lat: 34.0522, Lon: -118.2437, Population: 3900000},
	{ID: "Chicago", Name: "Chicago", Lat: 41.8781, Lon: -87.6298, Population: 2700000},
	{ID: "Houston", Name: "Houston", Lat: 29.7604, Lon: -95.3698, Population: 2300000},
	{ID: "Phoenix", Name: "Phoenix", Lat: 33.4484, Lon: -112.0740, Population: 1600000},
	{ID: "Philadelphia", Name: "Philadelphia", Lat: 39.9526, Lon: -75.1652, Population: 1600000},
	{ID: "San_Antonio", Name: "San Antonio", Lat: 29.4241, Lon: -98.4936, Population: 1500000},
	{ID: "San_Diego", Name: "San Diego", Lat: 32.7157, Lon: -117.1611, Population: 1400000},
	{ID: "Dallas", Name: "Dallas", Lat: 32.7767, Lon: -96.7970, Population: 1300000},
	{ID: "San_Jose", Name: "San Jose", Lat: 37.3382, Lon: -121.8863, Population: 1000000},
	{ID: "Austin", Name: "Austin", Lat: 30.2672, Lon: -97.7431, Population: 950000},
	{ID: "Jacksonville", Name: "Jacksonville", Lat: 30.3322, Lon: -81.6557, Population: 900000},
	{ID: "Fort_Worth", Name: "Fort Worth", Lat: 32.7555, Lon: -97.3308, Population: 900000},
	{ID: "Columbus", Name: "Columbus", Lat: 39.9612, Lon: -82.9988, Population: 880000},
	{ID: "Charlotte", Name: "Charlotte", Lat: 35.2271, Lon: -80.8431, Population: 870000},
	{ID: "Seattle", Name: "Seattle", Lat: 47.6062, Lon: -122.3321, Population: 750000},
	{ID: "Denver", Name: "Denver", Lat: 39.7392, Lon: -104.9903, Population: 710000},
	{ID: "Boston", Name: "Boston", Lat: 42.3601, Lon: -71.0589, Population: 690000},
	{ID: "Nashville", Name: "Nashville", Lat: 36.1627, Lon: -86.7816, Population: 670000},
	{ID: "Detroit", Name: "Detroit", Lat: 42.3314, Lon: -83.0458, Population: 670000},
}

// usWarehouses are the candidate warehouse sites with annual fixed costs.
var usWarehouses = []flp.Facility{
	{ID: "Memphis_TN", Name: "Memphis", Lat: 35.1495, Lon: -90.0490, FixedCost: 1200000},
	{ID: "Indianapolis_IN", Name: "Indianapolis", Lat: 39.7684, Lon: -86.1581, FixedCost: 1000000},
	{ID: "Atlanta_GA", Name: "Atlanta", Lat: 33.7490, Lon: -84.3880, FixedCost: 1300000},
	{ID: "Kansas_City_MO", Name: "Kansas City", Lat: 39.0997, Lon: -94.5786, FixedCost: 950000},
	{ID: "Columbus_OH", Name: "Columbus", Lat: 39.9612, Lon: -82.9988, FixedCost: 1000000},
	{ID: "Dallas_TX", Name: "Dallas", Lat: 32.7767, Lon: -96.7970, FixedCost: 1100000},
	{ID: "Reno_NV", Name: "Reno", Lat: 39.5296, Lon: -119.8138, FixedCost: 1150000},
	{ID: "Phoenix_AZ", Name: "Phoenix", Lat: 33.4484, Lon: -112.0740, FixedCost: 1050000},
	{ID: "Harrisburg_PA", Name: "Harrisburg", Lat: 40.2732, Lon: -76.8867, FixedCost: 1100000},
	{ID: "Allentown_PA", Name: "Allentown", Lat: 40.6023, Lon: -75.4714, FixedCost: 1050000},
}

func main() {
	flag.Var(&facilityCounts, "n", "List of facility counts")
	flag.Var(&pointCounts, "c", "List of demand point counts")
	name = flag.String("name", "flp", "Name prefix for the generated instances")
	outputDir = flag.String("outputDir", ".", "Directory to write the instances to")
	count = flag.Int("count", 1, "Number of instances per size combination")
	seed = flag.Int64("seed", 0, "Random seed. 0 uses the current time")
	cities = flag.Bool("cities", false, "Sample from the built-in US city tables instead of a random grid")
	capFrac = flag.Float64("capacity", 0, "Facility capacity as a fraction of total demand. 0 keeps instances uncapacitated")

	flag.Parse()

	if len(facilityCounts) == 0 {
		facilityCounts = flp.ArrayIntFlags{len(usWarehouses)}
	}
	if len(pointCounts) == 0 {
		pointCounts = flp.ArrayIntFlags{len(usCities)}
	}

	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(s))

	for _, numF := range facilityCounts {
		for _, numC := range pointCounts {
			for i := 0; i < *count; i++ {
				inst := generate(rng, numF, numC, s)
				inst.Name = fmt.Sprintf("%s_%d_%d_%d", *name, len(inst.Facilities), len(inst.DemandPoints), i)
				path := filepath.Join(*outputDir, inst.Name+".json")
				if err := inst.Write(path); err != nil {
					fmt.Printf("Couldn't write %s: %s\n", path, err.Error())
					os.Exit(1)
				}
				fmt.Printf("Generated %s\n", path)
			}
		}
	}
}

func generate(rng *rand.Rand, numF, numC int, seed int64) *flp.FLPInstance {
	var facilities []flp.Facility
	var points []flp.DemandPoint

	if *cities {
		if numF > len(usWarehouses) {
			numF = len(usWarehouses)
		}
		if numC > len(usCities) {
			numC = len(usCities)
		}
		for _, f := range rng.Perm(len(usWarehouses))[:numF] {
			facilities = append(facilities, usWarehouses[f])
		}
		for _, c := range rng.Perm(len(usCities))[:numC] {
			pt := usCities[c]
			//roughly one ton per 10k people, with some noise
			pt.Demand = math.Round(float64(pt.Population)/10000.0*(0.85+rng.Float64()*0.3)*100) / 100
			pt.ServiceLevel = pickService(rng)
			points = append(points, pt)
		}
	} else {
		//random locations over the continental US bounding box
		for f := 0; f < numF; f++ {
			facilities = append(facilities, flp.Facility{
				ID:        fmt.Sprintf("w%d", f),
				Lat:       25 + rng.Float64()*24,
				Lon:       -124 + rng.Float64()*57,
				FixedCost: 900000 + rng.Float64()*500000,
			})
		}
		for c := 0; c < numC; c++ {
			points = append(points, flp.DemandPoint{
				ID:           fmt.Sprintf("c%d", c),
				Lat:          25 + rng.Float64()*24,
				Lon:          -124 + rng.Float64()*57,
				Demand:       5 + rng.Float64()*115,
				ServiceLevel: pickService(rng),
			})
		}
	}

	if *capFrac > 0 {
		total := 0.0
		for _, pt := range points {
			total += pt.Demand
		}
		for f := range facilities {
			facilities[f].Capacity = math.Round(*capFrac * total)
		}
	}

	cm := flp.DefaultCostModel()
	var lanes []flp.Lane
	for _, fac := range facilities {
		for _, pt := range points {
			dist := flp.HaversineKm(fac.Lat, fac.Lon, pt.Lat, pt.Lon)
			lanes = append(lanes, flp.Lane{
				Facility:    fac.ID,
				DemandPoint: pt.ID,
				UnitCost:    math.Round(cm.UnitCost(dist, pt.ServiceLevel)*100) / 100,
				DistanceKm:  math.Round(dist*100) / 100,
			})
		}
	}

	return &flp.FLPInstance{
		Comment:      fmt.Sprintf("Generated with seed %d", seed),
		Type:         flp.INSTANCE_TYPE,
		Facilities:   facilities,
		DemandPoints: points,
		Lanes:        lanes,
	}
}

func pickService(rng *rand.Rand) string {
	r := rng.Float64()
	switch {
	case r < 0.6:
		return flp.SERVICE_STANDARD
	case r < 0.9:
		return flp.SERVICE_EXPRESS
	default:
		return flp.SERVICE_OVERNIGHT
	}
}
