package resource

import (
	"net/http"

	"github.com/gbl08ma/sqalx"
	"github.com/yarf-framework/yarf"

	"github.com/gpldepot/rondes/compute"
	"github.com/gpldepot/rondes/dataobjects"
)

// RoundAction composites resource. It serves the lifecycle transitions of a
// round: submit, return-to-edit and validate.
type RoundAction struct {
	resource
}

type apiRoundActionRequest struct {
	By     string `msgpack:"by" json:"by"`
	Remark string `msgpack:"remark" json:"remark"`
}

type apiValidationResult struct {
	Round  apiRound        `msgpack:"round" json:"round"`
	Report *compute.Report `msgpack:"report" json:"report"`
	Opened int             `msgpack:"opened" json:"opened"`
	Closed int             `msgpack:"closed" json:"closed"`
	Ledger int             `msgpack:"ledger" json:"ledger"`
}

// WithNode associates a sqalx Node with this resource
func (r *RoundAction) WithNode(node sqalx.Node) *RoundAction {
	r.node = node
	return r
}

// Post serves HTTP POST requests on this resource
func (r *RoundAction) Post(c *yarf.Context) error {
	var request apiRoundActionRequest
	err := r.DecodeRequest(c, &request)
	if err != nil {
		return err
	}

	round, err := dataobjects.GetRound(r.node, c.Param("rid"))
	if err != nil {
		return err
	}

	switch c.Param("action") {
	case "submit":
		err = compute.SubmitRound(r.node, round, request.By)
	case "return":
		err = compute.ReturnRoundToEdit(r.node, round)
	case "validate":
		var report *compute.Report
		var diff *compute.AnomalyDiff
		report, diff, err = compute.ValidateRound(r.node, round, request.By, request.Remark)
		if err == nil {
			RenderData(c, apiValidationResult{
				Round:  buildRoundWrapper(round),
				Report: report,
				Opened: len(diff.Opened),
				Closed: len(diff.Closed),
				Ledger: len(diff.Ledger),
			})
			return nil
		}
	default:
		return &yarf.CustomError{
			HTTPCode:  http.StatusNotFound,
			ErrorMsg:  "Unknown round action",
			ErrorBody: "Unknown round action",
		}
	}

	switch err {
	case nil:
		RenderData(c, buildRoundWrapper(round))
		return nil
	case dataobjects.ErrEmptyRound:
		return &yarf.CustomError{
			HTTPCode:  http.StatusUnprocessableEntity,
			ErrorMsg:  "At least one observation must be recorded before submission",
			ErrorBody: err.Error(),
		}
	case dataobjects.ErrInvalidTransition:
		return &yarf.CustomError{
			HTTPCode:  http.StatusConflict,
			ErrorMsg:  "The round is not in a state that allows this action",
			ErrorBody: err.Error(),
		}
	default:
		return err
	}
}
