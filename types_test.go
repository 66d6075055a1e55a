package flp

import (
	"path/filepath"
	"testing"
)

func TestReadInstance(t *testing.T) {
	inst, err := ReadInstance("testdata/flp_3_4_7.json")
	if err != nil {
		t.Fatalf("ReadInstance: %v", err)
	}
	if inst.Name != "flp_3_4_7" || inst.Type != INSTANCE_TYPE {
		t.Errorf("got name %q type %q", inst.Name, inst.Type)
	}
	if len(inst.Facilities) != 3 || len(inst.DemandPoints) != 4 || len(inst.Lanes) != 12 {
		t.Fatalf("got %d facilities, %d points, %d lanes",
			len(inst.Facilities), len(inst.DemandPoints), len(inst.Lanes))
	}
	if inst.Facilities[0].ID != "Memphis_TN" || inst.Facilities[0].FixedCost != 1200000 {
		t.Errorf("unexpected first facility: %+v", inst.Facilities[0])
	}
	if inst.DemandPoints[0].ServiceLevel != SERVICE_STANDARD {
		t.Errorf("got service level %q", inst.DemandPoints[0].ServiceLevel)
	}
	if inst.Solution != nil {
		t.Error("unsolved fixture carries a solution")
	}

	// the fixture must form a valid network
	if _, err := NewDataset(inst.Facilities, inst.DemandPoints, inst.Lanes); err != nil {
		t.Errorf("NewDataset: %v", err)
	}
}

func TestReadInstanceMissing(t *testing.T) {
	if _, err := ReadInstance("testdata/no_such_file.json"); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestInstanceWriteRoundTrip(t *testing.T) {
	inst, err := ReadInstance("testdata/flp_3_4_7.json")
	if err != nil {
		t.Fatalf("ReadInstance: %v", err)
	}
	inst.Solution = &FLPSolution{
		Status:    STATUS_OPTIMAL,
		Open:      []string{"Harrisburg_PA"},
		TotalCost: 1234567.89,
		Optimal:   true,
		Time:      "1.5s",
	}

	path := filepath.Join(t.TempDir(), "out.json")
	if err := inst.Write(path); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := ReadInstance(path)
	if err != nil {
		t.Fatalf("ReadInstance after Write: %v", err)
	}
	if len(got.Lanes) != len(inst.Lanes) {
		t.Errorf("got %d lanes, want %d", len(got.Lanes), len(inst.Lanes))
	}
	if got.Solution == nil || got.Solution.TotalCost != 1234567.89 {
		t.Errorf("solution did not survive the round trip: %+v", got.Solution)
	}
	if len(got.Solution.Open) != 1 || got.Solution.Open[0] != "Harrisburg_PA" {
		t.Errorf("got open set %v", got.Solution.Open)
	}
}
