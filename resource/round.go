package resource

import (
	"time"

	"github.com/gbl08ma/sqalx"
	"github.com/yarf-framework/yarf"

	"github.com/gpldepot/rondes/compute"
	"github.com/gpldepot/rondes/dataobjects"
)

// Round composites resource
type Round struct {
	resource
}

type apiRound struct {
	ID                 string                  `msgpack:"id" json:"id"`
	ISOWeek            string                  `msgpack:"isoWeek" json:"isoWeek"`
	Status             dataobjects.RoundStatus `msgpack:"status" json:"status"`
	StartDate          time.Time               `msgpack:"startDate" json:"startDate"`
	SubmittedBy        string                  `msgpack:"submittedBy" json:"submittedBy,omitempty"`
	SubmittedAt        *time.Time              `msgpack:"submittedAt" json:"submittedAt"`
	ValidatedBy        string                  `msgpack:"validatedBy" json:"validatedBy,omitempty"`
	ValidatedAt        *time.Time              `msgpack:"validatedAt" json:"validatedAt"`
	GlobalRemark       string                  `msgpack:"globalRemark" json:"globalRemark,omitempty"`
	FilledCount        int                     `msgpack:"filledCount" json:"filledCount"`
	TotalCount         int                     `msgpack:"totalCount" json:"totalCount"`
	GlobalAvailability *float64                `msgpack:"globalAvailability" json:"globalAvailability"`
}

// WithNode associates a sqalx Node with this resource
func (r *Round) WithNode(node sqalx.Node) *Round {
	r.node = node
	return r
}

// Get serves HTTP GET requests on this resource
func (r *Round) Get(c *yarf.Context) error {
	tx, err := r.Beginx()
	if err != nil {
		return err
	}
	defer tx.Commit() // read-only tx

	switch {
	case c.Param("id") == "current":
		round, err := compute.EnsureCurrentRound()
		if err != nil {
			return err
		}
		RenderData(c, buildRoundWrapper(round))
	case c.Param("id") != "":
		round, err := dataobjects.GetRound(tx, c.Param("id"))
		if err != nil {
			return err
		}
		RenderData(c, buildRoundWrapper(round))
	default:
		rounds, err := dataobjects.GetRounds(tx)
		if err != nil {
			return err
		}
		apirounds := make([]apiRound, len(rounds))
		for i := range rounds {
			apirounds[i] = buildRoundWrapper(rounds[i])
		}
		RenderData(c, apirounds)
	}
	return nil
}

func buildRoundWrapper(round *dataobjects.Round) apiRound {
	data := apiRound{
		ID:                 round.ID,
		ISOWeek:            round.ISOWeek,
		Status:             round.Status,
		StartDate:          round.StartDate,
		SubmittedBy:        round.SubmittedBy,
		ValidatedBy:        round.ValidatedBy,
		GlobalRemark:       round.GlobalRemark,
		FilledCount:        round.FilledCount,
		TotalCount:         round.TotalCount,
		GlobalAvailability: round.GlobalAvailability,
	}
	if round.Submitted {
		submittedAt := round.SubmittedAt
		data.SubmittedAt = &submittedAt
	}
	if round.Validated {
		validatedAt := round.ValidatedAt
		data.ValidatedAt = &validatedAt
	}
	return data
}
