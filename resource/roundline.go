package resource

import (
	"net/http"
	"time"

	"github.com/gbl08ma/sqalx"
	"github.com/yarf-framework/yarf"

	"github.com/gpldepot/rondes/compute"
	"github.com/gpldepot/rondes/dataobjects"
)

// RoundLine composites resource
type RoundLine struct {
	resource
}

type apiRoundLine struct {
	ID          string                      `msgpack:"id" json:"id"`
	EquipmentID string                      `msgpack:"equipment" json:"equipment"`
	Status      dataobjects.EquipmentStatus `msgpack:"status" json:"status,omitempty"`
	Comment     string                      `msgpack:"comment" json:"comment,omitempty"`
	Urgent      bool                        `msgpack:"urgent" json:"urgent"`
	FilledBy    string                      `msgpack:"filledBy" json:"filledBy,omitempty"`
	FilledAt    *time.Time                  `msgpack:"filledAt" json:"filledAt"`
}

// WithNode associates a sqalx Node with this resource
func (r *RoundLine) WithNode(node sqalx.Node) *RoundLine {
	r.node = node
	return r
}

// Get serves HTTP GET requests on this resource
func (r *RoundLine) Get(c *yarf.Context) error {
	tx, err := r.Beginx()
	if err != nil {
		return err
	}
	defer tx.Commit() // read-only tx

	round, err := dataobjects.GetRound(tx, c.Param("rid"))
	if err != nil {
		return err
	}
	lines, err := round.Lines(tx)
	if err != nil {
		return err
	}
	apilines := make([]apiRoundLine, len(lines))
	for i := range lines {
		apilines[i] = buildRoundLineWrapper(lines[i])
	}
	RenderData(c, apilines)
	return nil
}

// Post records one equipment's observation on the round
func (r *RoundLine) Post(c *yarf.Context) error {
	var request apiRoundLine
	err := r.DecodeRequest(c, &request)
	if err != nil {
		return err
	}

	tx, err := r.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	round, err := dataobjects.GetRound(tx, c.Param("rid"))
	if err != nil {
		return err
	}

	line, err := round.RecordObservation(tx, request.EquipmentID, request.Status,
		request.Comment, request.Urgent, request.FilledBy)
	if err == dataobjects.ErrRoundImmutable {
		return &yarf.CustomError{
			HTTPCode:  http.StatusConflict,
			ErrorMsg:  "This round is validated; return it to edit before correcting observations",
			ErrorBody: err.Error(),
		}
	}
	if err != nil {
		return err
	}

	err = tx.Commit()
	if err != nil {
		return err
	}
	compute.InvalidateReport(round.ID)

	c.Response.WriteHeader(http.StatusCreated)
	RenderData(c, buildRoundLineWrapper(line))
	return nil
}

func buildRoundLineWrapper(line *dataobjects.RoundLine) apiRoundLine {
	data := apiRoundLine{
		ID:          line.ID,
		EquipmentID: line.Equipment.ID,
		Status:      line.Status,
		Comment:     line.Comment,
		Urgent:      line.Urgent,
		FilledBy:    line.FilledBy,
	}
	if !line.FilledAt.IsZero() {
		filledAt := line.FilledAt
		data.FilledAt = &filledAt
	}
	return data
}
