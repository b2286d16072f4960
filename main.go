package main

import (
	"log"
	"os"
	"time"

	"github.com/gbl08ma/sqalx"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/gbl08ma/keybox"
	"github.com/gpldepot/rondes/compute"
	"github.com/gpldepot/rondes/dataobjects"
)

var (
	rdb           *sqlx.DB
	rootSqalxNode sqalx.Node
	secrets       *keybox.Keybox
	mainLog       = log.New(os.Stdout, "", log.Ldate|log.Ltime)
	webLog        = log.New(os.Stdout, "web", log.Ldate|log.Ltime)

	// GitCommit is provided by govvv at compile-time
	GitCommit = "???"
	// BuildDate is provided by govvv at compile-time
	BuildDate = "???"
)

func main() {
	var err error
	mainLog.Println("Server starting, opening keybox...")
	secrets, err = keybox.Open(SecretsPath)
	if err != nil {
		mainLog.Fatalln(err)
	}
	mainLog.Println("Keybox opened")

	mainLog.Println("Opening database...")
	databaseURI, present := secrets.Get("databaseURI")
	if !present {
		mainLog.Fatalln("Database connection string not present in keybox")
	}
	rdb, err = sqlx.Open("postgres", databaseURI)
	if err != nil {
		mainLog.Fatalln(err)
	}
	defer rdb.Close()

	err = rdb.Ping()
	if err != nil {
		mainLog.Fatalln(err)
	}
	rdb.SetMaxOpenConns(MaxDBconnectionPoolSize)

	rootSqalxNode, err = sqalx.New(rdb)
	if err != nil {
		mainLog.Fatalln(err)
	}
	mainLog.Println("Database opened")

	compute.Initialize(rootSqalxNode, mainLog)

	go StatsSender()
	go APIserver()

	go func() {
		time.Sleep(5 * time.Second)
		for {
			round, err := compute.EnsureCurrentRound()
			if err != nil {
				mainLog.Println(err)
			} else if DEBUG {
				mainLog.Println("Current round is", round.ID, "for week", round.ISOWeek)
			}
			time.Sleep(1 * time.Hour)
		}
	}()

	for {
		if DEBUG {
			printLatestReport(rootSqalxNode)
		}
		time.Sleep(10 * time.Minute)
	}
}

func printLatestReport(node sqalx.Node) {
	tx, err := node.Beginx()
	if err != nil {
		mainLog.Println(err)
		return
	}
	defer tx.Commit() // read-only tx

	rounds, err := dataobjects.GetLatestRounds(tx, 1)
	if err != nil || len(rounds) == 0 {
		return
	}
	report, err := compute.ReportForRound(tx, rounds[0])
	if err != nil {
		mainLog.Println(err)
		return
	}
	if report.Global != nil {
		mainLog.Println("Week", rounds[0].ISOWeek, "availability:", *report.Global, "("+string(report.Color)+")")
	} else {
		mainLog.Println("Week", rounds[0].ISOWeek, "has no observations yet")
	}
}
