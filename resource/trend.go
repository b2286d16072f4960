package resource

import (
	"strconv"

	"github.com/gbl08ma/sqalx"
	"github.com/yarf-framework/yarf"

	"github.com/gpldepot/rondes/compute"
)

// Trend composites resource. It serves the week-over-week availability series
// built from validated rounds.
type Trend struct {
	resource
}

// WithNode associates a sqalx Node with this resource
func (r *Trend) WithNode(node sqalx.Node) *Trend {
	r.node = node
	return r
}

// Get serves HTTP GET requests on this resource
func (r *Trend) Get(c *yarf.Context) error {
	tx, err := r.Beginx()
	if err != nil {
		return err
	}
	defer tx.Commit() // read-only tx

	limit := 12
	if l, err := strconv.Atoi(c.Request.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}

	points, err := compute.WeeklyTrend(tx, limit)
	if err != nil {
		return err
	}
	RenderData(c, points)
	return nil
}
