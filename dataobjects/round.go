package dataobjects

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
	"github.com/lib/pq"
	uuid "github.com/satori/go.uuid"
)

// RoundStatus indicates where a Round is in its validation lifecycle
type RoundStatus string

const (
	// RoundInProgress is the initial state, while inspectors record observations
	RoundInProgress RoundStatus = "IN_PROGRESS"
	// RoundAwaitingValidation is the state after submission, before review
	RoundAwaitingValidation RoundStatus = "AWAITING_VALIDATION"
	// RoundValidated is the terminal state for reporting purposes
	RoundValidated RoundStatus = "VALIDATED"
)

// ErrRoundNotFound is returned when no Round matches the requested criteria
var ErrRoundNotFound = errors.New("Round not found")

// ErrInvalidTransition is returned when a lifecycle transition is attempted
// from a state that does not allow it
var ErrInvalidTransition = errors.New("InvalidTransition: round is not in a state that allows this transition")

// ErrEmptyRound is returned when submission is attempted with zero recorded
// observations
var ErrEmptyRound = errors.New("EmptyRound: at least one observation must be recorded before submission")

// Round is one weekly inspection cycle, keyed by its ISO week identifier.
// Exactly one Round exists per ISO week.
// Report holds the serialized availability report frozen at validation time;
// it is the official record, immune to later referential changes.
type Round struct {
	ID                 string
	ISOWeek            string
	Status             RoundStatus
	StartDate          time.Time
	SubmittedBy        string
	SubmittedAt        time.Time
	Submitted          bool
	ValidatedBy        string
	ValidatedAt        time.Time
	Validated          bool
	GlobalRemark       string
	FilledCount        int
	TotalCount         int
	GlobalAvailability *float64
	Report             []byte
}

// GetRounds returns a slice with all registered rounds, most recent first
func GetRounds(node sqalx.Node) ([]*Round, error) {
	s := sdb.Select().
		OrderBy("iso_week DESC")
	return getRoundsWithSelect(node, s)
}

// GetLatestRounds returns a slice with at most limit rounds, most recent first
func GetLatestRounds(node sqalx.Node, limit uint64) ([]*Round, error) {
	s := sdb.Select().
		OrderBy("iso_week DESC").
		Limit(limit)
	return getRoundsWithSelect(node, s)
}

// GetValidatedRounds returns all validated rounds, oldest first
func GetValidatedRounds(node sqalx.Node) ([]*Round, error) {
	s := sdb.Select().
		Where(sq.Eq{"status": string(RoundValidated)}).
		OrderBy("iso_week ASC")
	return getRoundsWithSelect(node, s)
}

func getRoundsWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*Round, error) {
	rounds := []*Round{}

	tx, err := node.Beginx()
	if err != nil {
		return rounds, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("id", "iso_week", "status", "start_date",
		"submitted_by", "submitted_at", "validated_by", "validated_at",
		"global_remark", "filled_count", "total_count", "global_availability",
		"report").
		From("inspection_round").
		RunWith(tx).Query()
	if err != nil {
		return rounds, fmt.Errorf("getRoundsWithSelect: %s", err)
	}
	defer rows.Close()

	for rows.Next() {
		var round Round
		var submittedBy, validatedBy, remark sql.NullString
		var submittedAt, validatedAt pq.NullTime
		var global sql.NullFloat64
		err := rows.Scan(
			&round.ID,
			&round.ISOWeek,
			&round.Status,
			&round.StartDate,
			&submittedBy,
			&submittedAt,
			&validatedBy,
			&validatedAt,
			&remark,
			&round.FilledCount,
			&round.TotalCount,
			&global,
			&round.Report)
		if err != nil {
			return rounds, fmt.Errorf("getRoundsWithSelect: %s", err)
		}
		round.SubmittedBy = submittedBy.String
		round.SubmittedAt = submittedAt.Time
		round.Submitted = submittedAt.Valid
		round.ValidatedBy = validatedBy.String
		round.ValidatedAt = validatedAt.Time
		round.Validated = validatedAt.Valid
		round.GlobalRemark = remark.String
		if global.Valid {
			round.GlobalAvailability = &global.Float64
		}
		rounds = append(rounds, &round)
	}
	if err := rows.Err(); err != nil {
		return rounds, fmt.Errorf("getRoundsWithSelect: %s", err)
	}
	return rounds, nil
}

// GetRound returns the Round with the given ID
func GetRound(node sqalx.Node, id string) (*Round, error) {
	s := sdb.Select().
		Where(sq.Eq{"id": id})
	rounds, err := getRoundsWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(rounds) == 0 {
		return nil, ErrRoundNotFound
	}
	return rounds[0], nil
}

// GetRoundByWeek returns the Round for the given ISO week
func GetRoundByWeek(node sqalx.Node, week string) (*Round, error) {
	s := sdb.Select().
		Where(sq.Eq{"iso_week": week})
	rounds, err := getRoundsWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(rounds) == 0 {
		return nil, ErrRoundNotFound
	}
	return rounds[0], nil
}

// GetCurrentRound returns the Round for the current ISO week
func GetCurrentRound(node sqalx.Node) (*Round, error) {
	return GetRoundByWeek(node, CurrentISOWeek())
}

// GetPreviousValidatedRound returns the most recent validated Round with an
// ISO week strictly before the given one, regardless of how many weeks
// separate them
func GetPreviousValidatedRound(node sqalx.Node, beforeWeek string) (*Round, error) {
	s := sdb.Select().
		Where(sq.Lt{"iso_week": beforeWeek}).
		Where(sq.Eq{"status": string(RoundValidated)}).
		OrderBy("iso_week DESC").
		Limit(1)
	rounds, err := getRoundsWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(rounds) == 0 {
		return nil, ErrRoundNotFound
	}
	return rounds[0], nil
}

// CreateRoundForWeek creates the Round for the given ISO week, along with one
// empty line per active equipment. If the round already exists it is returned
// unchanged.
func CreateRoundForWeek(node sqalx.Node, week string) (*Round, error) {
	tx, err := node.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if round, err := GetRoundByWeek(tx, week); err == nil {
		return round, tx.Commit()
	}

	weekStart, err := ISOWeekStart(week)
	if err != nil {
		return nil, err
	}

	equipment, err := GetActiveEquipment(tx)
	if err != nil {
		return nil, fmt.Errorf("CreateRoundForWeek: %s", err)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	round := &Round{
		ID:         id.String(),
		ISOWeek:    week,
		Status:     RoundInProgress,
		StartDate:  weekStart.UTC(),
		TotalCount: len(equipment),
	}
	err = round.Update(tx)
	if err != nil {
		return nil, fmt.Errorf("CreateRoundForWeek: %s", err)
	}

	for _, item := range equipment {
		lineID, err := uuid.NewV4()
		if err != nil {
			return nil, err
		}
		line := &RoundLine{
			ID:        lineID.String(),
			Round:     round,
			Equipment: item,
		}
		err = line.Update(tx)
		if err != nil {
			return nil, fmt.Errorf("CreateRoundForWeek: %s", err)
		}
	}
	return round, tx.Commit()
}

// ApplySubmit performs the IN_PROGRESS → AWAITING_VALIDATION transition on
// this Round. FilledCount must be up to date before calling.
func (round *Round) ApplySubmit(submitter string, when time.Time) error {
	if round.Status != RoundInProgress {
		return ErrInvalidTransition
	}
	if round.FilledCount == 0 {
		return ErrEmptyRound
	}
	round.Status = RoundAwaitingValidation
	round.SubmittedBy = submitter
	round.SubmittedAt = when
	round.Submitted = true
	return nil
}

// ApplyReturnToEdit performs the AWAITING_VALIDATION → IN_PROGRESS
// transition, clearing the submission metadata
func (round *Round) ApplyReturnToEdit() error {
	if round.Status != RoundAwaitingValidation {
		return ErrInvalidTransition
	}
	round.Status = RoundInProgress
	round.SubmittedBy = ""
	round.SubmittedAt = time.Time{}
	round.Submitted = false
	return nil
}

// ApplyValidate performs the AWAITING_VALIDATION → VALIDATED transition,
// recording the validator and the official global availability
func (round *Round) ApplyValidate(validator string, remark string, when time.Time, global *float64) error {
	if round.Status != RoundAwaitingValidation {
		return ErrInvalidTransition
	}
	round.Status = RoundValidated
	round.ValidatedBy = validator
	round.ValidatedAt = when
	round.Validated = true
	round.GlobalRemark = remark
	round.GlobalAvailability = global
	return nil
}

// Lines returns the observation lines of this round
func (round *Round) Lines(node sqalx.Node) ([]*RoundLine, error) {
	s := sdb.Select().
		Where(sq.Eq{"round_id": round.ID})
	return getRoundLinesWithSelect(node, s)
}

// Update adds or updates the round
func (round *Round) Update(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	submittedBy := sql.NullString{String: round.SubmittedBy, Valid: round.Submitted}
	submittedAt := pq.NullTime{Time: round.SubmittedAt, Valid: round.Submitted}
	validatedBy := sql.NullString{String: round.ValidatedBy, Valid: round.Validated}
	validatedAt := pq.NullTime{Time: round.ValidatedAt, Valid: round.Validated}
	remark := sql.NullString{String: round.GlobalRemark, Valid: round.GlobalRemark != ""}
	global := sql.NullFloat64{}
	if round.GlobalAvailability != nil {
		global = sql.NullFloat64{Float64: *round.GlobalAvailability, Valid: true}
	}

	_, err = sdb.Insert("inspection_round").
		Columns("id", "iso_week", "status", "start_date", "submitted_by", "submitted_at",
			"validated_by", "validated_at", "global_remark", "filled_count", "total_count",
			"global_availability", "report").
		Values(round.ID, round.ISOWeek, round.Status, round.StartDate, submittedBy, submittedAt,
			validatedBy, validatedAt, remark, round.FilledCount, round.TotalCount, global,
			round.Report).
		Suffix("ON CONFLICT (id) DO UPDATE SET iso_week = ?, status = ?, start_date = ?, "+
			"submitted_by = ?, submitted_at = ?, validated_by = ?, validated_at = ?, "+
			"global_remark = ?, filled_count = ?, total_count = ?, global_availability = ?, "+
			"report = ?",
			round.ISOWeek, round.Status, round.StartDate, submittedBy, submittedAt,
			validatedBy, validatedAt, remark, round.FilledCount, round.TotalCount, global,
			round.Report).
		RunWith(tx).Exec()

	if err != nil {
		return errors.New("AddRound: " + err.Error())
	}
	return tx.Commit()
}

// Delete deletes the round and its lines
func (round *Round) Delete(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Delete("inspection_round_line").
		Where(sq.Eq{"round_id": round.ID}).RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("RemoveRound: %s", err)
	}

	_, err = sdb.Delete("inspection_round").
		Where(sq.Eq{"id": round.ID}).RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("RemoveRound: %s", err)
	}
	return tx.Commit()
}
