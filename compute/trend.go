package compute

import (
	"github.com/gbl08ma/sqalx"

	"github.com/gpldepot/rondes/dataobjects"
)

// TrendPoint is the availability of one validated round, for dashboard and
// report trend charts
type TrendPoint struct {
	Week   string             `msgpack:"week" json:"week"`
	Global float64            `msgpack:"global" json:"global"`
	Zones  map[string]float64 `msgpack:"zones" json:"zones"`
}

// WeeklyTrend returns one point per validated round, oldest first, at most
// limit points counted from the most recent. Rounds validated without a
// global score (only zero-weight zones observed) are skipped.
func WeeklyTrend(node sqalx.Node, limit int) ([]TrendPoint, error) {
	tx, err := node.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Commit() // read-only tx

	rounds, err := dataobjects.GetValidatedRounds(tx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(rounds) > limit {
		rounds = rounds[len(rounds)-limit:]
	}

	points := []TrendPoint{}
	for _, round := range rounds {
		if round.GlobalAvailability == nil {
			continue
		}
		point := TrendPoint{
			Week:   round.ISOWeek,
			Global: *round.GlobalAvailability,
			Zones:  make(map[string]float64),
		}
		report, err := ReportForRound(tx, round)
		if err != nil {
			return nil, err
		}
		for _, zone := range report.Zones {
			if zone.Availability != nil {
				point.Zones[zone.Name] = *zone.Availability
			}
		}
		points = append(points, point)
	}
	return points, nil
}
