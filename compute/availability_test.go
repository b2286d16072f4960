package compute

import (
	"errors"
	"testing"

	"github.com/gpldepot/rondes/dataobjects"
)

func TestStatusScoreMapping(t *testing.T) {
	zone := testZone("storage", 1, 1)
	e1 := testEquipment("pump", zone, nil, 1)
	e2 := testEquipment("valve", zone, nil, 2)
	e3 := testEquipment("compressor", zone, nil, 3)
	ref := mustBuildReferential([]*dataobjects.Zone{zone}, nil, []*dataobjects.Equipment{e1, e2, e3})

	report, err := ComputeAvailability(ref, []*dataobjects.RoundLine{
		observedLine(e1, dataobjects.StatusOperational, false),
		observedLine(e2, dataobjects.StatusDegraded, false),
		observedLine(e3, dataobjects.StatusOutOfService, false),
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	scores := map[string]float64{}
	for _, es := range report.Zones[0].Direct {
		if es.Score == nil {
			t.Fatalf("equipment %s has no score", es.EquipmentID)
		}
		scores[es.EquipmentID] = *es.Score
	}
	if scores["pump"] != 100 || scores["valve"] != 50 || scores["compressor"] != 0 {
		t.Errorf("wrong status-to-score mapping: %v", scores)
	}
	if report.Global == nil || *report.Global != 50 {
		t.Errorf("expected global 50, got %v", report.Global)
	}
	if report.Zones[0].Degraded != 1 || report.Zones[0].OutOfService != 1 || report.Zones[0].Operational != 1 {
		t.Errorf("wrong per-status counts: %+v", report.Zones[0])
	}
	if report.Anomalies != 2 {
		t.Errorf("expected 2 anomalies, got %d", report.Anomalies)
	}
}

func TestMissingObservationExcluded(t *testing.T) {
	zone := testZone("filling", 1, 1)
	e1 := testEquipment("carousel", zone, nil, 1)
	e2 := testEquipment("scale", zone, nil, 2)
	ref := mustBuildReferential([]*dataobjects.Zone{zone}, nil, []*dataobjects.Equipment{e1, e2})

	report, err := ComputeAvailability(ref, []*dataobjects.RoundLine{
		observedLine(e1, dataobjects.StatusOperational, false),
		unobservedLine(e2),
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	// the unobserved scale must not drag the mean down to 50
	if report.Global == nil || *report.Global != 100 {
		t.Errorf("expected global 100 with the unobserved equipment excluded, got %v", report.Global)
	}
	if report.MissingCount != 1 || report.Filled != 1 || report.Total != 2 {
		t.Errorf("wrong fill counters: missing=%d filled=%d total=%d", report.MissingCount, report.Filled, report.Total)
	}
}

func TestFullyUnobservedRoundHasNilGlobal(t *testing.T) {
	zone := testZone("storage", 2, 1)
	e1 := testEquipment("pump", zone, nil, 1)
	ref := mustBuildReferential([]*dataobjects.Zone{zone}, nil, []*dataobjects.Equipment{e1})

	report, err := ComputeAvailability(ref, []*dataobjects.RoundLine{unobservedLine(e1)}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if report.Global != nil {
		t.Errorf("expected nil global for a fully unobserved round, got %v", *report.Global)
	}
	if report.Zones[0].Availability != nil {
		t.Errorf("expected nil zone availability, got %v", *report.Zones[0].Availability)
	}
	if report.Delta != nil {
		t.Errorf("expected nil delta without a global score")
	}
}

func TestWeightedZoneAggregation(t *testing.T) {
	z1 := testZone("light", 1, 1)
	z2 := testZone("heavy", 3, 2)
	e1 := testEquipment("ok-unit", z1, nil, 1)
	e2 := testEquipment("dead-unit", z2, nil, 1)
	ref := mustBuildReferential([]*dataobjects.Zone{z1, z2}, nil, []*dataobjects.Equipment{e1, e2})

	report, err := ComputeAvailability(ref, []*dataobjects.RoundLine{
		observedLine(e1, dataobjects.StatusOperational, false),
		observedLine(e2, dataobjects.StatusOutOfService, false),
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	// (1×100 + 3×0) / 4
	if report.Global == nil || *report.Global != 25 {
		t.Errorf("expected global 25, got %v", report.Global)
	}
}

func TestZeroWeightZoneExcluded(t *testing.T) {
	z1 := testZone("monitoring-only", 0, 1)
	z2 := testZone("scored", 2, 2)
	e1 := testEquipment("camera", z1, nil, 1)
	e2 := testEquipment("pump", z2, nil, 1)
	ref := mustBuildReferential([]*dataobjects.Zone{z1, z2}, nil, []*dataobjects.Equipment{e1, e2})

	report, err := ComputeAvailability(ref, []*dataobjects.RoundLine{
		observedLine(e1, dataobjects.StatusOutOfService, false),
		observedLine(e2, dataobjects.StatusOperational, false),
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if report.Global == nil || *report.Global != 100 {
		t.Errorf("zero-weight zone must not affect the global mean, got %v", report.Global)
	}
	// the zone still gets its own score for display
	if report.Zones[0].Availability == nil || *report.Zones[0].Availability != 0 {
		t.Errorf("zero-weight zone should still carry its own availability")
	}

	onlyZeroWeight := mustBuildReferential([]*dataobjects.Zone{z1}, nil, []*dataobjects.Equipment{e1})
	report, err = ComputeAvailability(onlyZeroWeight, []*dataobjects.RoundLine{
		observedLine(e1, dataobjects.StatusOperational, false),
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if report.Global != nil {
		t.Errorf("expected nil global when every zone has zero weight, got %v", *report.Global)
	}
}

func TestMixedZoneGroupsWeighByItemCount(t *testing.T) {
	zone := testZone("storage", 1, 1)
	sphere := testSubZone("sphere-a", zone, 1)
	e1 := testEquipment("sphere-valve-1", zone, sphere, 1)
	e2 := testEquipment("sphere-valve-2", zone, sphere, 2)
	direct := testEquipment("weighbridge", zone, nil, 3)
	ref := mustBuildReferential([]*dataobjects.Zone{zone}, []*dataobjects.SubZone{sphere}, []*dataobjects.Equipment{e1, e2, direct})

	report, err := ComputeAvailability(ref, []*dataobjects.RoundLine{
		observedLine(e1, dataobjects.StatusOperational, false),
		observedLine(e2, dataobjects.StatusOperational, false),
		observedLine(direct, dataobjects.StatusOutOfService, false),
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	// weight-by-item-count: (100+100+0)/3 = 66.7, not the group-average 50
	if report.Zones[0].Availability == nil || *report.Zones[0].Availability != 66.7 {
		t.Errorf("expected zone availability 66.7, got %v", report.Zones[0].Availability)
	}
	if len(report.Zones[0].SubZones) != 1 || len(report.Zones[0].Direct) != 1 {
		t.Fatalf("expected one sub-zone group and one direct item")
	}
	if sz := report.Zones[0].SubZones[0]; sz.Availability == nil || *sz.Availability != 100 {
		t.Errorf("expected sub-zone availability 100, got %v", sz.Availability)
	}
}

func TestColorThresholds(t *testing.T) {
	cases := []struct {
		score float64
		want  Color
	}{
		{100, ColorGreen},
		{90, ColorGreen},
		{89.9, ColorOrange},
		{70, ColorOrange},
		{69.9, ColorRed},
		{0, ColorRed},
	}
	for _, c := range cases {
		if got := ColorForScore(c.score); got != c.want {
			t.Errorf("ColorForScore(%v) = %v, want %v", c.score, got, c.want)
		}
	}
}

func TestDeltaVsPreviousValidatedRound(t *testing.T) {
	zone := testZone("storage", 1, 1)
	e1 := testEquipment("pump", zone, nil, 1)
	ref := mustBuildReferential([]*dataobjects.Zone{zone}, nil, []*dataobjects.Equipment{e1})
	lines := []*dataobjects.RoundLine{observedLine(e1, dataobjects.StatusOperational, false)}

	previous := 80.0
	report, err := ComputeAvailability(ref, lines, &previous)
	if err != nil {
		t.Fatal(err)
	}
	if report.Delta == nil || *report.Delta != 20 {
		t.Errorf("expected delta +20, got %v", report.Delta)
	}

	report, err = ComputeAvailability(ref, lines, nil)
	if err != nil {
		t.Fatal(err)
	}
	if report.Delta != nil {
		t.Errorf("expected nil delta without a previous validated round, got %v", *report.Delta)
	}
}

func TestInvalidHierarchy(t *testing.T) {
	z1 := testZone("storage", 1, 1)
	z2 := testZone("filling", 1, 2)
	sphere := testSubZone("sphere-a", z1, 1)
	stray := testEquipment("stray", z2, sphere, 1)

	_, err := BuildReferential([]*dataobjects.Zone{z1, z2}, []*dataobjects.SubZone{sphere}, []*dataobjects.Equipment{stray})
	if !errors.Is(err, ErrInvalidHierarchy) {
		t.Errorf("expected ErrInvalidHierarchy for cross-zone sub-zone, got %v", err)
	}

	e1 := testEquipment("pump", z1, nil, 1)
	ref := mustBuildReferential([]*dataobjects.Zone{z1}, nil, []*dataobjects.Equipment{e1})
	ghost := testEquipment("ghost", z1, nil, 2)
	_, err = ComputeAvailability(ref, []*dataobjects.RoundLine{
		observedLine(ghost, dataobjects.StatusOperational, false),
	}, nil)
	if !errors.Is(err, ErrInvalidHierarchy) {
		t.Errorf("expected ErrInvalidHierarchy for an observation outside the snapshot, got %v", err)
	}
}

func TestScoreBounds(t *testing.T) {
	z1 := testZone("a", 1.5, 1)
	z2 := testZone("b", 0.5, 2)
	sphere := testSubZone("sphere", z1, 1)
	items := []*dataobjects.Equipment{
		testEquipment("e1", z1, sphere, 1),
		testEquipment("e2", z1, sphere, 2),
		testEquipment("e3", z1, nil, 3),
		testEquipment("e4", z2, nil, 1),
		testEquipment("e5", z2, nil, 2),
	}
	ref := mustBuildReferential([]*dataobjects.Zone{z1, z2}, []*dataobjects.SubZone{sphere}, items)

	statuses := []dataobjects.EquipmentStatus{
		dataobjects.StatusOutOfService,
		dataobjects.StatusDegraded,
		dataobjects.StatusOperational,
		dataobjects.StatusDegraded,
		dataobjects.StatusOutOfService,
	}
	lines := []*dataobjects.RoundLine{}
	for i, item := range items {
		lines = append(lines, observedLine(item, statuses[i], i%2 == 0))
	}

	report, err := ComputeAvailability(ref, lines, nil)
	if err != nil {
		t.Fatal(err)
	}
	checkBounds := func(name string, v *float64) {
		if v != nil && (*v < 0 || *v > 100) {
			t.Errorf("%s score %v out of [0, 100]", name, *v)
		}
	}
	checkBounds("global", report.Global)
	for _, zone := range report.Zones {
		checkBounds(zone.Name, zone.Availability)
		for _, sz := range zone.SubZones {
			checkBounds(sz.Name, sz.Availability)
			for _, es := range sz.Equipment {
				checkBounds(es.Name, es.Score)
			}
		}
		for _, es := range zone.Direct {
			checkBounds(es.Name, es.Score)
		}
	}
}

func TestInactiveItemsExcluded(t *testing.T) {
	zone := testZone("storage", 1, 1)
	active := testEquipment("pump", zone, nil, 1)
	retired := testEquipment("old-pump", zone, nil, 2)
	retired.Active = false
	ref := mustBuildReferential([]*dataobjects.Zone{zone}, nil, []*dataobjects.Equipment{active, retired})

	report, err := ComputeAvailability(ref, []*dataobjects.RoundLine{
		observedLine(active, dataobjects.StatusOperational, false),
		observedLine(retired, dataobjects.StatusOutOfService, false),
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if report.Global == nil || *report.Global != 100 {
		t.Errorf("retired equipment must not count, got %v", report.Global)
	}
	if report.Total != 1 {
		t.Errorf("expected total 1, got %d", report.Total)
	}
}
