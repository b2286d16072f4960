package resource

import (
	"github.com/gbl08ma/sqalx"
	"github.com/yarf-framework/yarf"

	"github.com/gpldepot/rondes/compute"
	"github.com/gpldepot/rondes/dataobjects"
)

// Report composites resource. It serves the availability report of a round:
// definitive for validated rounds, a live preview otherwise.
type Report struct {
	resource
}

// WithNode associates a sqalx Node with this resource
func (r *Report) WithNode(node sqalx.Node) *Report {
	r.node = node
	return r
}

// Get serves HTTP GET requests on this resource
func (r *Report) Get(c *yarf.Context) error {
	tx, err := r.Beginx()
	if err != nil {
		return err
	}
	defer tx.Commit() // read-only tx

	round, err := dataobjects.GetRound(tx, c.Param("rid"))
	if err != nil {
		return err
	}
	report, err := compute.ReportForRound(tx, round)
	if err != nil {
		return err
	}
	RenderData(c, report)
	return nil
}
