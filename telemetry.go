package main

import (
	"time"

	"github.com/gpldepot/rondes/dataobjects"
	statsd "gopkg.in/alexcesaro/statsd.v2"
)

// APIrequestTelemetry is a channel where something should be sent whenever an API
// request is served
var APIrequestTelemetry = make(chan interface{}, 10)

// StatsSender is meant to be called as a goroutine that handles sending telemetry
// to a statsd (or compatible) server
func StatsSender() {
	statsdAddress, present := secrets.Get("statsdAddress")
	statsdPrefix, present2 := secrets.Get("statsdPrefix")
	if !present || !present2 {
		return
	}

	c, err := statsd.New(statsd.Address(statsdAddress), statsd.Prefix(statsdPrefix))
	if err != nil {
		// If nothing is listening on the target port, an error is returned and
		// the returned client does nothing but is still usable. So we can
		// just log the error and go on.
		mainLog.Println(err)
	}
	defer c.Close()

	ticker := time.NewTicker(1 * time.Minute)

	for {
		select {
		case <-ticker.C:
			sendGauges(c)
		case <-APIrequestTelemetry:
			c.Increment("apicalls")
		}
	}
}

func sendGauges(c *statsd.Client) {
	tx, err := rootSqalxNode.Beginx()
	if err != nil {
		mainLog.Println(err)
		return
	}
	defer tx.Commit() // read-only tx

	open, err := dataobjects.GetOpenAnomalies(tx)
	if err != nil {
		mainLog.Println(err)
		return
	}
	c.Gauge("open_anomalies", len(open))
	urgent := 0
	for _, anomaly := range open {
		if anomaly.Urgent {
			urgent++
		}
	}
	c.Gauge("open_anomalies_urgent", urgent)

	round, err := dataobjects.GetCurrentRound(tx)
	if err != nil {
		return
	}
	c.Gauge("current_round_filled", round.FilledCount)
	c.Gauge("current_round_total", round.TotalCount)
}
