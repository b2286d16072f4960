package compute

import (
	"errors"
	"fmt"
	"math"
	"sort"

	funk "github.com/thoas/go-funk"

	"github.com/gpldepot/rondes/dataobjects"
)

// ErrInvalidHierarchy is returned when the referential snapshot is internally
// inconsistent, or when an observation references equipment outside the
// snapshot. This is a data-integrity bug to fix in the referential, never a
// condition to retry.
var ErrInvalidHierarchy = errors.New("InvalidHierarchy: referential snapshot is inconsistent")

// Status-to-score policy. Fixed: reports across years must stay comparable.
const (
	ScoreOperational  = 100.0
	ScoreDegraded     = 50.0
	ScoreOutOfService = 0.0
)

// Color classification thresholds for availability percentages
const (
	GreenThreshold  = 90.0
	OrangeThreshold = 70.0
)

// Color is the traffic-light classification of an availability percentage
type Color string

const (
	// ColorGreen means availability at or above GreenThreshold
	ColorGreen Color = "green"
	// ColorOrange means availability between OrangeThreshold and GreenThreshold
	ColorOrange Color = "orange"
	// ColorRed means availability below OrangeThreshold
	ColorRed Color = "red"
)

// ColorForScore classifies an availability percentage
func ColorForScore(score float64) Color {
	switch {
	case score >= GreenThreshold:
		return ColorGreen
	case score >= OrangeThreshold:
		return ColorOrange
	default:
		return ColorRed
	}
}

func scoreForStatus(status dataobjects.EquipmentStatus) float64 {
	switch status {
	case dataobjects.StatusDegraded:
		return ScoreDegraded
	case dataobjects.StatusOutOfService:
		return ScoreOutOfService
	default:
		return ScoreOperational
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Referential is a validated, indexed snapshot of the inspection hierarchy.
// It is read-only input to the calculator and the reconciler.
type Referential struct {
	Zones     []*dataobjects.Zone
	SubZones  []*dataobjects.SubZone
	Equipment []*dataobjects.Equipment

	equipmentByID      map[string]*dataobjects.Equipment
	subZonesByZone     map[string][]*dataobjects.SubZone
	equipmentBySubZone map[string][]*dataobjects.Equipment
	directByZone       map[string][]*dataobjects.Equipment
}

// BuildReferential validates and indexes a referential snapshot.
// It fails with ErrInvalidHierarchy on orphaned references or on equipment
// whose sub-zone belongs to a different zone.
func BuildReferential(zones []*dataobjects.Zone, subZones []*dataobjects.SubZone, equipment []*dataobjects.Equipment) (*Referential, error) {
	ref := &Referential{
		Zones:              zones,
		SubZones:           subZones,
		Equipment:          equipment,
		equipmentByID:      make(map[string]*dataobjects.Equipment),
		subZonesByZone:     make(map[string][]*dataobjects.SubZone),
		equipmentBySubZone: make(map[string][]*dataobjects.Equipment),
		directByZone:       make(map[string][]*dataobjects.Equipment),
	}

	zoneIDs := make(map[string]bool)
	for _, zone := range zones {
		zoneIDs[zone.ID] = true
	}

	subZoneZone := make(map[string]string)
	for _, subZone := range subZones {
		if subZone.Zone == nil || !zoneIDs[subZone.Zone.ID] {
			return nil, fmt.Errorf("%w: sub-zone %s references an unknown zone", ErrInvalidHierarchy, subZone.ID)
		}
		subZoneZone[subZone.ID] = subZone.Zone.ID
		if subZone.Active {
			ref.subZonesByZone[subZone.Zone.ID] = append(ref.subZonesByZone[subZone.Zone.ID], subZone)
		}
	}

	for _, item := range equipment {
		if item.Zone == nil || !zoneIDs[item.Zone.ID] {
			return nil, fmt.Errorf("%w: equipment %s references an unknown zone", ErrInvalidHierarchy, item.ID)
		}
		if item.SubZone != nil {
			owner, known := subZoneZone[item.SubZone.ID]
			if !known {
				return nil, fmt.Errorf("%w: equipment %s references an unknown sub-zone", ErrInvalidHierarchy, item.ID)
			}
			if owner != item.Zone.ID {
				return nil, fmt.Errorf("%w: equipment %s is in sub-zone %s of another zone", ErrInvalidHierarchy, item.ID, item.SubZone.ID)
			}
		}
		ref.equipmentByID[item.ID] = item
		if !item.Active {
			continue
		}
		if item.SubZone != nil {
			ref.equipmentBySubZone[item.SubZone.ID] = append(ref.equipmentBySubZone[item.SubZone.ID], item)
		} else {
			ref.directByZone[item.Zone.ID] = append(ref.directByZone[item.Zone.ID], item)
		}
	}

	for _, group := range ref.subZonesByZone {
		sort.SliceStable(group, func(i, j int) bool { return group[i].Order < group[j].Order })
	}
	for _, group := range ref.equipmentBySubZone {
		sort.SliceStable(group, func(i, j int) bool { return group[i].Order < group[j].Order })
	}
	for _, group := range ref.directByZone {
		sort.SliceStable(group, func(i, j int) bool { return group[i].Order < group[j].Order })
	}
	return ref, nil
}

// EquipmentWithID returns the equipment with the given ID from the snapshot
func (ref *Referential) EquipmentWithID(id string) (*dataobjects.Equipment, bool) {
	item, present := ref.equipmentByID[id]
	return item, present
}

// EquipmentScore is one equipment's contribution to the KPI tree. Score is
// nil for unobserved equipment, which contributes to no denominator.
type EquipmentScore struct {
	EquipmentID string                      `msgpack:"equipmentId" json:"equipmentId"`
	Name        string                      `msgpack:"name" json:"name"`
	Status      dataobjects.EquipmentStatus `msgpack:"status" json:"status,omitempty"`
	Score       *float64                    `msgpack:"score" json:"score"`
	Urgent      bool                        `msgpack:"urgent" json:"urgent"`
}

// SubZoneKPI is the aggregated availability of one sub-zone
type SubZoneKPI struct {
	SubZoneID    string           `msgpack:"subZoneId" json:"subZoneId"`
	Name         string           `msgpack:"name" json:"name"`
	Label        string           `msgpack:"label" json:"label"`
	Total        int              `msgpack:"total" json:"total"`
	Filled       int              `msgpack:"filled" json:"filled"`
	Operational  int              `msgpack:"operational" json:"operational"`
	Degraded     int              `msgpack:"degraded" json:"degraded"`
	OutOfService int              `msgpack:"outOfService" json:"outOfService"`
	Urgent       int              `msgpack:"urgent" json:"urgent"`
	Availability *float64         `msgpack:"availability" json:"availability"`
	Color        Color            `msgpack:"color" json:"color,omitempty"`
	Equipment    []EquipmentScore `msgpack:"equipment" json:"equipment"`
}

// ZoneKPI is the aggregated availability of one zone. A zone aggregates its
// sub-zones and its directly attached equipment as peer groups, each group
// weighing by its observed item count.
type ZoneKPI struct {
	ZoneID       string           `msgpack:"zoneId" json:"zoneId"`
	Name         string           `msgpack:"name" json:"name"`
	Label        string           `msgpack:"label" json:"label"`
	KPIWeight    float64          `msgpack:"kpiWeight" json:"kpiWeight"`
	Total        int              `msgpack:"total" json:"total"`
	Filled       int              `msgpack:"filled" json:"filled"`
	Operational  int              `msgpack:"operational" json:"operational"`
	Degraded     int              `msgpack:"degraded" json:"degraded"`
	OutOfService int              `msgpack:"outOfService" json:"outOfService"`
	Urgent       int              `msgpack:"urgent" json:"urgent"`
	Availability *float64         `msgpack:"availability" json:"availability"`
	Color        Color            `msgpack:"color" json:"color,omitempty"`
	SubZones     []SubZoneKPI     `msgpack:"subZones" json:"subZones"`
	Direct       []EquipmentScore `msgpack:"direct" json:"direct"`
}

// Report is the full availability KPI tree of one round. Global is nil when
// nothing contributed to the weighted mean (no observations, or only
// zero-weight zones), never zero.
type Report struct {
	Global       *float64  `msgpack:"global" json:"global"`
	Color        Color     `msgpack:"color" json:"color,omitempty"`
	Delta        *float64  `msgpack:"delta" json:"delta"`
	Zones        []ZoneKPI `msgpack:"zones" json:"zones"`
	Anomalies    int       `msgpack:"anomalies" json:"anomalies"`
	Urgent       int       `msgpack:"urgent" json:"urgent"`
	Filled       int       `msgpack:"filled" json:"filled"`
	Total        int       `msgpack:"total" json:"total"`
	MissingCount int       `msgpack:"missing" json:"missing"`
}

type groupTally struct {
	total        int
	filled       int
	operational  int
	degraded     int
	outOfService int
	urgent       int
	scores       []float64
}

func (t *groupTally) add(item *dataobjects.Equipment, line *dataobjects.RoundLine) EquipmentScore {
	t.total++
	score := EquipmentScore{
		EquipmentID: item.ID,
		Name:        item.Name,
	}
	if line == nil || !line.Observed() {
		return score
	}
	t.filled++
	switch line.Status {
	case dataobjects.StatusOperational:
		t.operational++
	case dataobjects.StatusDegraded:
		t.degraded++
	case dataobjects.StatusOutOfService:
		t.outOfService++
	}
	if line.Urgent {
		t.urgent++
	}
	value := scoreForStatus(line.Status)
	t.scores = append(t.scores, value)
	score.Status = line.Status
	score.Score = &value
	score.Urgent = line.Urgent
	return score
}

// availability returns the plain mean of the observed scores, or nil when
// nothing was observed
func (t *groupTally) availability() *float64 {
	if len(t.scores) == 0 {
		return nil
	}
	mean := round1(funk.SumFloat64(t.scores) / float64(len(t.scores)))
	return &mean
}

func (t *groupTally) merge(other *groupTally) {
	t.total += other.total
	t.filled += other.filled
	t.operational += other.operational
	t.degraded += other.degraded
	t.outOfService += other.outOfService
	t.urgent += other.urgent
	t.scores = append(t.scores, other.scores...)
}

// ComputeAvailability deterministically converts one round's observations
// into the hierarchical KPI tree. It is a pure function of the referential
// snapshot, the observation lines and the previous validated global score.
//
// Unobserved equipment is excluded from every denominator; it is surfaced
// through the missing counter instead of silently skewing scores.
func ComputeAvailability(ref *Referential, lines []*dataobjects.RoundLine, previousGlobal *float64) (*Report, error) {
	linesByEquipment := make(map[string]*dataobjects.RoundLine)
	for _, line := range lines {
		if line.Equipment == nil {
			return nil, fmt.Errorf("%w: observation %s has no equipment", ErrInvalidHierarchy, line.ID)
		}
		if _, present := ref.EquipmentWithID(line.Equipment.ID); !present {
			return nil, fmt.Errorf("%w: observation references equipment %s outside the snapshot", ErrInvalidHierarchy, line.Equipment.ID)
		}
		linesByEquipment[line.Equipment.ID] = line
	}

	report := &Report{Zones: []ZoneKPI{}}

	activeZones := []*dataobjects.Zone{}
	for _, zone := range ref.Zones {
		if zone.Active {
			activeZones = append(activeZones, zone)
		}
	}
	sort.SliceStable(activeZones, func(i, j int) bool { return activeZones[i].Order < activeZones[j].Order })

	weightedSum := 0.0
	weightTotal := 0.0

	for _, zone := range activeZones {
		zoneKPI := ZoneKPI{
			ZoneID:    zone.ID,
			Name:      zone.Name,
			Label:     zone.Label,
			KPIWeight: zone.KPIWeight,
			SubZones:  []SubZoneKPI{},
			Direct:    []EquipmentScore{},
		}
		zoneTally := &groupTally{}

		for _, subZone := range ref.subZonesByZone[zone.ID] {
			subTally := &groupTally{}
			subKPI := SubZoneKPI{
				SubZoneID: subZone.ID,
				Name:      subZone.Name,
				Label:     subZone.Label,
				Equipment: []EquipmentScore{},
			}
			for _, item := range ref.equipmentBySubZone[subZone.ID] {
				subKPI.Equipment = append(subKPI.Equipment, subTally.add(item, linesByEquipment[item.ID]))
			}
			subKPI.Total = subTally.total
			subKPI.Filled = subTally.filled
			subKPI.Operational = subTally.operational
			subKPI.Degraded = subTally.degraded
			subKPI.OutOfService = subTally.outOfService
			subKPI.Urgent = subTally.urgent
			subKPI.Availability = subTally.availability()
			if subKPI.Availability != nil {
				subKPI.Color = ColorForScore(*subKPI.Availability)
			}
			zoneKPI.SubZones = append(zoneKPI.SubZones, subKPI)
			zoneTally.merge(subTally)
		}

		directTally := &groupTally{}
		for _, item := range ref.directByZone[zone.ID] {
			zoneKPI.Direct = append(zoneKPI.Direct, directTally.add(item, linesByEquipment[item.ID]))
		}
		zoneTally.merge(directTally)

		zoneKPI.Total = zoneTally.total
		zoneKPI.Filled = zoneTally.filled
		zoneKPI.Operational = zoneTally.operational
		zoneKPI.Degraded = zoneTally.degraded
		zoneKPI.OutOfService = zoneTally.outOfService
		zoneKPI.Urgent = zoneTally.urgent
		// sub-zone groups and the direct group weigh by observed item count,
		// so the zone score reduces to the mean over all observed equipment
		zoneKPI.Availability = zoneTally.availability()
		if zoneKPI.Availability != nil {
			zoneKPI.Color = ColorForScore(*zoneKPI.Availability)
		}

		report.Zones = append(report.Zones, zoneKPI)
		report.Filled += zoneKPI.Filled
		report.Total += zoneKPI.Total
		report.Anomalies += zoneKPI.Degraded + zoneKPI.OutOfService
		report.Urgent += zoneKPI.Urgent

		// zero-weight zones are excluded from the weighted mean entirely,
		// they never score "at zero weight" against a zero denominator
		if zone.KPIWeight > 0 && zoneKPI.Availability != nil {
			weightedSum += *zoneKPI.Availability * zone.KPIWeight
			weightTotal += zone.KPIWeight
		}
	}

	report.MissingCount = report.Total - report.Filled

	if weightTotal > 0 {
		global := round1(weightedSum / weightTotal)
		report.Global = &global
		report.Color = ColorForScore(global)
		if previousGlobal != nil {
			delta := round1(global - *previousGlobal)
			report.Delta = &delta
		}
	}
	return report, nil
}
