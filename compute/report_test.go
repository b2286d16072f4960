package compute

import (
	"testing"

	"github.com/gpldepot/rondes/dataobjects"
)

func TestFrozenReportSurvivesReferentialChanges(t *testing.T) {
	zoneA := testZone("storage", 1, 1)
	zoneB := testZone("filling", 1, 2)
	e1 := testEquipment("pump", zoneA, nil, 1)
	e2 := testEquipment("carousel", zoneB, nil, 1)
	lines := []*dataobjects.RoundLine{
		observedLine(e1, dataobjects.StatusOperational, false),
		observedLine(e2, dataobjects.StatusOutOfService, false),
	}

	ref := mustBuildReferential([]*dataobjects.Zone{zoneA, zoneB}, nil, []*dataobjects.Equipment{e1, e2})
	official, err := ComputeAvailability(ref, lines, nil)
	if err != nil {
		t.Fatal(err)
	}
	if official.Global == nil || *official.Global != 50 {
		t.Fatalf("expected global 50 at validation time, got %v", official.Global)
	}

	blob, err := encodeReport(official)
	if err != nil {
		t.Fatal(err)
	}

	// the filling zone is deactivated after validation; a recompute against
	// the new referential no longer sees it
	zoneB.Active = false
	changed := mustBuildReferential([]*dataobjects.Zone{zoneA, zoneB}, nil, []*dataobjects.Equipment{e1})
	recomputed, err := ComputeAvailability(changed, []*dataobjects.RoundLine{lines[0]}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(recomputed.Zones) != 1 || *recomputed.Global != 100 {
		t.Fatalf("expected the recompute to drop the deactivated zone")
	}

	// the frozen report still carries the validated week as it was
	frozen, err := decodeReport(blob)
	if err != nil {
		t.Fatal(err)
	}
	if len(frozen.Zones) != 2 {
		t.Errorf("frozen report lost a zone: %d zones", len(frozen.Zones))
	}
	if frozen.Global == nil || *frozen.Global != 50 {
		t.Errorf("frozen report global = %v, want 50", frozen.Global)
	}
	if frozen.Zones[1].ZoneID != "filling" || frozen.Zones[1].Availability == nil || *frozen.Zones[1].Availability != 0 {
		t.Errorf("frozen report rewrote the deactivated zone's history: %+v", frozen.Zones[1])
	}
}
