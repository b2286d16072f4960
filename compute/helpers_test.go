package compute

import (
	"github.com/gpldepot/rondes/dataobjects"
)

func testZone(id string, weight float64, order int) *dataobjects.Zone {
	return &dataobjects.Zone{
		ID:        id,
		Name:      id,
		Label:     id,
		Order:     order,
		Active:    true,
		KPIWeight: weight,
	}
}

func testSubZone(id string, zone *dataobjects.Zone, order int) *dataobjects.SubZone {
	return &dataobjects.SubZone{
		ID:     id,
		Zone:   zone,
		Name:   id,
		Label:  id,
		Order:  order,
		Active: true,
	}
}

func testEquipment(id string, zone *dataobjects.Zone, subZone *dataobjects.SubZone, order int) *dataobjects.Equipment {
	return &dataobjects.Equipment{
		ID:      id,
		Zone:    zone,
		SubZone: subZone,
		Name:    id,
		Order:   order,
		Active:  true,
	}
}

func observedLine(item *dataobjects.Equipment, status dataobjects.EquipmentStatus, urgent bool) *dataobjects.RoundLine {
	return &dataobjects.RoundLine{
		ID:        "line-" + item.ID,
		Equipment: item,
		Status:    status,
		Urgent:    urgent,
	}
}

func unobservedLine(item *dataobjects.Equipment) *dataobjects.RoundLine {
	return &dataobjects.RoundLine{
		ID:        "line-" + item.ID,
		Equipment: item,
	}
}

func testRound(week string) *dataobjects.Round {
	return &dataobjects.Round{
		ID:      "round-" + week,
		ISOWeek: week,
		Status:  dataobjects.RoundAwaitingValidation,
	}
}

func mustBuildReferential(zones []*dataobjects.Zone, subZones []*dataobjects.SubZone, equipment []*dataobjects.Equipment) *Referential {
	ref, err := BuildReferential(zones, subZones, equipment)
	if err != nil {
		panic(err)
	}
	return ref
}
