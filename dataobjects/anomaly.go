package dataobjects

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
	"github.com/lib/pq"
)

// AnomalyStatus indicates whether an anomaly is still being tracked
type AnomalyStatus string

const (
	// AnomalyOpen means the non-operational condition is still current
	AnomalyOpen AnomalyStatus = "OPEN"
	// AnomalyResolved means a later round observed the equipment operational again
	AnomalyResolved AnomalyStatus = "RESOLVED"
)

// Anomaly is a tracked non-operational condition of one equipment, open from
// the round that first observed it until a later round observes recovery.
// Zone and sub-zone identity is denormalized at opening time so reports keep
// the historical hierarchy even if the referential changes later.
// At most one open Anomaly exists per equipment at any time.
type Anomaly struct {
	ID             string
	Equipment      *Equipment
	ZoneID         string
	SubZoneID      string
	OpeningRoundID string
	OpeningWeek    string
	OpeningDate    time.Time
	InitialStatus  EquipmentStatus
	InitialComment string
	Urgent         bool
	Status         AnomalyStatus
	ClosingRoundID string
	ClosingWeek    string
	ClosingDate    time.Time
	Resolved       bool
	DurationDays   int
}

// GetAnomalies returns a slice with all registered anomalies, oldest first
func GetAnomalies(node sqalx.Node) ([]*Anomaly, error) {
	s := sdb.Select().
		OrderBy("opening_date ASC")
	return getAnomaliesWithSelect(node, s)
}

// GetOpenAnomalies returns a slice with all open anomalies, oldest first
func GetOpenAnomalies(node sqalx.Node) ([]*Anomaly, error) {
	s := sdb.Select().
		Where(sq.Eq{"status": string(AnomalyOpen)}).
		OrderBy("opening_date ASC")
	return getAnomaliesWithSelect(node, s)
}

func getAnomaliesWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*Anomaly, error) {
	anomalies := []*Anomaly{}

	tx, err := node.Beginx()
	if err != nil {
		return anomalies, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("id", "equipment_id", "zone_id", "subzone_id",
		"opening_round_id", "opening_week", "opening_date", "initial_status",
		"initial_comment", "urgent", "status", "closing_round_id", "closing_week",
		"closing_date", "duration_days").
		From("inspection_anomaly").
		RunWith(tx).Query()
	if err != nil {
		return anomalies, fmt.Errorf("getAnomaliesWithSelect: %s", err)
	}

	equipmentIDs := []string{}
	for rows.Next() {
		var anomaly Anomaly
		var equipmentID string
		var subZoneID, initialComment, closingRoundID, closingWeek sql.NullString
		var closingDate pq.NullTime
		var durationDays sql.NullInt64
		err := rows.Scan(
			&anomaly.ID,
			&equipmentID,
			&anomaly.ZoneID,
			&subZoneID,
			&anomaly.OpeningRoundID,
			&anomaly.OpeningWeek,
			&anomaly.OpeningDate,
			&anomaly.InitialStatus,
			&initialComment,
			&anomaly.Urgent,
			&anomaly.Status,
			&closingRoundID,
			&closingWeek,
			&closingDate,
			&durationDays)
		if err != nil {
			rows.Close()
			return anomalies, fmt.Errorf("getAnomaliesWithSelect: %s", err)
		}
		anomaly.SubZoneID = subZoneID.String
		anomaly.InitialComment = initialComment.String
		anomaly.ClosingRoundID = closingRoundID.String
		anomaly.ClosingWeek = closingWeek.String
		anomaly.ClosingDate = closingDate.Time
		anomaly.Resolved = closingDate.Valid
		anomaly.DurationDays = int(durationDays.Int64)
		anomalies = append(anomalies, &anomaly)
		equipmentIDs = append(equipmentIDs, equipmentID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return anomalies, fmt.Errorf("getAnomaliesWithSelect: %s", err)
	}
	rows.Close()

	for i := range anomalies {
		anomalies[i].Equipment, err = GetEquipmentWithID(tx, equipmentIDs[i])
		if err != nil {
			return anomalies, fmt.Errorf("getAnomaliesWithSelect: %s", err)
		}
	}
	return anomalies, nil
}

// GetAnomaly returns the Anomaly with the given ID
func GetAnomaly(node sqalx.Node, id string) (*Anomaly, error) {
	s := sdb.Select().
		Where(sq.Eq{"id": id})
	anomalies, err := getAnomaliesWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(anomalies) == 0 {
		return nil, errors.New("Anomaly not found")
	}
	return anomalies[0], nil
}

// Update adds or updates the anomaly
func (anomaly *Anomaly) Update(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	subZoneID := sql.NullString{String: anomaly.SubZoneID, Valid: anomaly.SubZoneID != ""}
	initialComment := sql.NullString{String: anomaly.InitialComment, Valid: anomaly.InitialComment != ""}
	closingRoundID := sql.NullString{String: anomaly.ClosingRoundID, Valid: anomaly.Resolved}
	closingWeek := sql.NullString{String: anomaly.ClosingWeek, Valid: anomaly.Resolved}
	closingDate := pq.NullTime{Time: anomaly.ClosingDate, Valid: anomaly.Resolved}
	durationDays := sql.NullInt64{Int64: int64(anomaly.DurationDays), Valid: anomaly.Resolved}

	_, err = sdb.Insert("inspection_anomaly").
		Columns("id", "equipment_id", "zone_id", "subzone_id", "opening_round_id",
			"opening_week", "opening_date", "initial_status", "initial_comment", "urgent",
			"status", "closing_round_id", "closing_week", "closing_date", "duration_days").
		Values(anomaly.ID, anomaly.Equipment.ID, anomaly.ZoneID, subZoneID, anomaly.OpeningRoundID,
			anomaly.OpeningWeek, anomaly.OpeningDate, anomaly.InitialStatus, initialComment, anomaly.Urgent,
			anomaly.Status, closingRoundID, closingWeek, closingDate, durationDays).
		Suffix("ON CONFLICT (id) DO UPDATE SET status = ?, closing_round_id = ?, closing_week = ?, "+
			"closing_date = ?, duration_days = ?, urgent = ?",
			anomaly.Status, closingRoundID, closingWeek, closingDate, durationDays, anomaly.Urgent).
		RunWith(tx).Exec()

	if err != nil {
		return errors.New("AddAnomaly: " + err.Error())
	}
	return tx.Commit()
}

// Delete deletes the anomaly
func (anomaly *Anomaly) Delete(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Delete("inspection_anomaly").
		Where(sq.Eq{"id": anomaly.ID}).RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("RemoveAnomaly: %s", err)
	}
	return tx.Commit()
}
