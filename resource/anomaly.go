package resource

import (
	"time"

	"github.com/gbl08ma/sqalx"
	"github.com/yarf-framework/yarf"

	"github.com/gpldepot/rondes/dataobjects"
)

// Anomaly composites resource
type Anomaly struct {
	resource
}

type apiAnomaly struct {
	ID             string                      `msgpack:"id" json:"id"`
	EquipmentID    string                      `msgpack:"equipment" json:"equipment"`
	ZoneID         string                      `msgpack:"zone" json:"zone"`
	SubZoneID      string                      `msgpack:"subZone" json:"subZone,omitempty"`
	OpeningRoundID string                      `msgpack:"openingRound" json:"openingRound"`
	OpeningWeek    string                      `msgpack:"openingWeek" json:"openingWeek"`
	OpeningDate    time.Time                   `msgpack:"openingDate" json:"openingDate"`
	InitialStatus  dataobjects.EquipmentStatus `msgpack:"initialStatus" json:"initialStatus"`
	InitialComment string                      `msgpack:"initialComment" json:"initialComment,omitempty"`
	Urgent         bool                        `msgpack:"urgent" json:"urgent"`
	Status         dataobjects.AnomalyStatus   `msgpack:"status" json:"status"`
	ClosingRoundID string                      `msgpack:"closingRound" json:"closingRound,omitempty"`
	ClosingWeek    string                      `msgpack:"closingWeek" json:"closingWeek,omitempty"`
	ClosingDate    *time.Time                  `msgpack:"closingDate" json:"closingDate"`
	DurationDays   int                         `msgpack:"durationDays" json:"durationDays"`
}

// WithNode associates a sqalx Node with this resource
func (r *Anomaly) WithNode(node sqalx.Node) *Anomaly {
	r.node = node
	return r
}

// Get serves HTTP GET requests on this resource
func (r *Anomaly) Get(c *yarf.Context) error {
	tx, err := r.Beginx()
	if err != nil {
		return err
	}
	defer tx.Commit() // read-only tx

	if c.Param("id") != "" {
		anomaly, err := dataobjects.GetAnomaly(tx, c.Param("id"))
		if err != nil {
			return err
		}
		RenderData(c, buildAnomalyWrapper(anomaly))
		return nil
	}

	var anomalies []*dataobjects.Anomaly
	if c.Request.URL.Query().Get("filter") == "open" {
		anomalies, err = dataobjects.GetOpenAnomalies(tx)
	} else {
		anomalies, err = dataobjects.GetAnomalies(tx)
	}
	if err != nil {
		return err
	}
	apianomalies := make([]apiAnomaly, len(anomalies))
	for i := range anomalies {
		apianomalies[i] = buildAnomalyWrapper(anomalies[i])
	}
	RenderData(c, apianomalies)
	return nil
}

func buildAnomalyWrapper(anomaly *dataobjects.Anomaly) apiAnomaly {
	data := apiAnomaly{
		ID:             anomaly.ID,
		EquipmentID:    anomaly.Equipment.ID,
		ZoneID:         anomaly.ZoneID,
		SubZoneID:      anomaly.SubZoneID,
		OpeningRoundID: anomaly.OpeningRoundID,
		OpeningWeek:    anomaly.OpeningWeek,
		OpeningDate:    anomaly.OpeningDate,
		InitialStatus:  anomaly.InitialStatus,
		InitialComment: anomaly.InitialComment,
		Urgent:         anomaly.Urgent,
		Status:         anomaly.Status,
		ClosingRoundID: anomaly.ClosingRoundID,
		ClosingWeek:    anomaly.ClosingWeek,
		DurationDays:   anomaly.DurationDays,
	}
	if anomaly.Resolved {
		closingDate := anomaly.ClosingDate
		data.ClosingDate = &closingDate
	}
	return data
}
