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

// EquipmentStatus is the condition recorded for one equipment during a round
type EquipmentStatus string

const (
	// StatusOperational means the equipment works normally
	StatusOperational EquipmentStatus = "OPERATIONAL"
	// StatusDegraded means the equipment works with reduced capability
	StatusDegraded EquipmentStatus = "DEGRADED"
	// StatusOutOfService means the equipment does not work at all
	StatusOutOfService EquipmentStatus = "OUT_OF_SERVICE"
)

// Valid reports whether this is one of the three recordable statuses
func (status EquipmentStatus) Valid() bool {
	switch status {
	case StatusOperational, StatusDegraded, StatusOutOfService:
		return true
	}
	return false
}

// Anomalous reports whether this status warrants an open anomaly record
func (status EquipmentStatus) Anomalous() bool {
	return status == StatusDegraded || status == StatusOutOfService
}

// ErrRoundImmutable is returned when an observation is recorded on a
// validated round. Corrections require returning the round to edit first.
var ErrRoundImmutable = errors.New("RoundImmutable: observations cannot change once the round is validated")

// RoundLine is one equipment's observation slot within a Round. Status stays
// empty until an inspector records the condition; an unfilled line is a
// first-class "not observed" state, never a default status.
type RoundLine struct {
	ID        string
	Round     *Round
	Equipment *Equipment
	Status    EquipmentStatus
	Comment   string
	Urgent    bool
	FilledBy  string
	FilledAt  time.Time
}

// Observed reports whether a status has been recorded on this line
func (line *RoundLine) Observed() bool {
	return line.Status != ""
}

func getRoundLinesWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*RoundLine, error) {
	lines := []*RoundLine{}

	tx, err := node.Beginx()
	if err != nil {
		return lines, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("id", "round_id", "equipment_id", "status",
		"comment", "urgent", "filled_by", "filled_at").
		From("inspection_round_line").
		RunWith(tx).Query()
	if err != nil {
		return lines, fmt.Errorf("getRoundLinesWithSelect: %s", err)
	}

	roundIDs := []string{}
	equipmentIDs := []string{}
	for rows.Next() {
		var line RoundLine
		var roundID, equipmentID string
		var status, comment, filledBy sql.NullString
		var filledAt pq.NullTime
		err := rows.Scan(
			&line.ID,
			&roundID,
			&equipmentID,
			&status,
			&comment,
			&line.Urgent,
			&filledBy,
			&filledAt)
		if err != nil {
			rows.Close()
			return lines, fmt.Errorf("getRoundLinesWithSelect: %s", err)
		}
		line.Status = EquipmentStatus(status.String)
		line.Comment = comment.String
		line.FilledBy = filledBy.String
		line.FilledAt = filledAt.Time
		lines = append(lines, &line)
		roundIDs = append(roundIDs, roundID)
		equipmentIDs = append(equipmentIDs, equipmentID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return lines, fmt.Errorf("getRoundLinesWithSelect: %s", err)
	}
	rows.Close()

	for i := range lines {
		lines[i].Round, err = GetRound(tx, roundIDs[i])
		if err != nil {
			return lines, fmt.Errorf("getRoundLinesWithSelect: %s", err)
		}
		lines[i].Equipment, err = GetEquipmentWithID(tx, equipmentIDs[i])
		if err != nil {
			return lines, fmt.Errorf("getRoundLinesWithSelect: %s", err)
		}
	}
	return lines, nil
}

// GetRoundLine returns the line of the given round for the given equipment
func GetRoundLine(node sqalx.Node, roundID string, equipmentID string) (*RoundLine, error) {
	s := sdb.Select().
		Where(sq.Eq{"round_id": roundID}).
		Where(sq.Eq{"equipment_id": equipmentID})
	lines, err := getRoundLinesWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, errors.New("RoundLine not found")
	}
	return lines[0], nil
}

// RecordObservation records or overwrites the observation for one equipment
// of this round and refreshes the round's fill counter. Validated rounds are
// immutable.
func (round *Round) RecordObservation(node sqalx.Node, equipmentID string, status EquipmentStatus, comment string, urgent bool, filledBy string) (*RoundLine, error) {
	if round.Status == RoundValidated {
		return nil, ErrRoundImmutable
	}
	if !status.Valid() {
		return nil, fmt.Errorf("RecordObservation: unknown status %q", status)
	}

	tx, err := node.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	line, err := GetRoundLine(tx, round.ID, equipmentID)
	if err != nil {
		return nil, fmt.Errorf("RecordObservation: %s", err)
	}
	line.Status = status
	line.Comment = comment
	line.Urgent = urgent
	line.FilledBy = filledBy
	line.FilledAt = time.Now()
	err = line.Update(tx)
	if err != nil {
		return nil, fmt.Errorf("RecordObservation: %s", err)
	}

	err = round.RefreshCounters(tx)
	if err != nil {
		return nil, fmt.Errorf("RecordObservation: %s", err)
	}
	return line, tx.Commit()
}

// RefreshCounters recomputes and stores this round's fill counters from its lines
func (round *Round) RefreshCounters(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	lines, err := round.Lines(tx)
	if err != nil {
		return err
	}
	filled := 0
	for _, line := range lines {
		if line.Observed() {
			filled++
		}
	}
	round.FilledCount = filled
	round.TotalCount = len(lines)
	err = round.Update(tx)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Update adds or updates the round line
func (line *RoundLine) Update(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	status := sql.NullString{String: string(line.Status), Valid: line.Observed()}
	comment := sql.NullString{String: line.Comment, Valid: line.Comment != ""}
	filledBy := sql.NullString{String: line.FilledBy, Valid: line.FilledBy != ""}
	filledAt := pq.NullTime{Time: line.FilledAt, Valid: !line.FilledAt.IsZero()}

	_, err = sdb.Insert("inspection_round_line").
		Columns("id", "round_id", "equipment_id", "status", "comment", "urgent", "filled_by", "filled_at").
		Values(line.ID, line.Round.ID, line.Equipment.ID, status, comment, line.Urgent, filledBy, filledAt).
		Suffix("ON CONFLICT (id) DO UPDATE SET status = ?, comment = ?, urgent = ?, filled_by = ?, filled_at = ?",
			status, comment, line.Urgent, filledBy, filledAt).
		RunWith(tx).Exec()

	if err != nil {
		return errors.New("AddRoundLine: " + err.Error())
	}
	return tx.Commit()
}

// Delete deletes the round line
func (line *RoundLine) Delete(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Delete("inspection_round_line").
		Where(sq.Eq{"id": line.ID}).RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("RemoveRoundLine: %s", err)
	}
	return tx.Commit()
}
