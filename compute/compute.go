// Package compute implements the availability scoring engine and the anomaly
// lifecycle reconciliation that underlie the weekly inspection rounds.
package compute

import (
	"log"
	"time"

	"github.com/gbl08ma/sqalx"
	cache "github.com/patrickmn/go-cache"
)

var rootSqalxNode sqalx.Node
var mainLog *log.Logger

// reportCache holds computed availability reports keyed by round ID.
// Entries are dropped whenever the round changes state.
var reportCache *cache.Cache

// Initialize initializes the package
func Initialize(snode sqalx.Node, log *log.Logger) {
	rootSqalxNode = snode
	mainLog = log
	reportCache = cache.New(1*time.Hour, 10*time.Minute)
}
