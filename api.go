package main

import (
	"github.com/gpldepot/rondes/resource"
	"github.com/yarf-framework/yarf"
)

// TelemetryMiddleware counts served API requests
type TelemetryMiddleware struct {
	yarf.Middleware
}

// PreDispatch runs before the request is dispatched to a resource
func (m *TelemetryMiddleware) PreDispatch(c *yarf.Context) error {
	select {
	case APIrequestTelemetry <- nil:
	default:
	}
	return nil
}

// APIserver runs the HTTP API server. Meant to be called as a goroutine
func APIserver() {
	y := yarf.New()

	y.Insert(new(TelemetryMiddleware))

	v1 := yarf.RouteGroup("/v1")

	v1.Add("/zones", new(resource.Zone).WithNode(rootSqalxNode))
	v1.Add("/zones/:id", new(resource.Zone).WithNode(rootSqalxNode))

	v1.Add("/equipment", new(resource.Equipment).WithNode(rootSqalxNode))
	v1.Add("/equipment/:id", new(resource.Equipment).WithNode(rootSqalxNode))

	v1.Add("/rounds", new(resource.Round).WithNode(rootSqalxNode))
	v1.Add("/rounds/:id", new(resource.Round).WithNode(rootSqalxNode))
	v1.Add("/rounds/:rid/lines", new(resource.RoundLine).WithNode(rootSqalxNode))
	v1.Add("/rounds/:rid/actions/:action", new(resource.RoundAction).WithNode(rootSqalxNode))
	v1.Add("/rounds/:rid/report", new(resource.Report).WithNode(rootSqalxNode))

	v1.Add("/anomalies", new(resource.Anomaly).WithNode(rootSqalxNode))
	v1.Add("/anomalies/:id", new(resource.Anomaly).WithNode(rootSqalxNode))

	v1.Add("/trend", new(resource.Trend).WithNode(rootSqalxNode))

	v1.Add("/recipients", new(resource.Recipient).WithNode(rootSqalxNode))
	v1.Add("/recipients/:id", new(resource.Recipient).WithNode(rootSqalxNode))

	y.AddGroup(v1)

	y.Logger = webLog
	y.Start(ListenAddress)
}
