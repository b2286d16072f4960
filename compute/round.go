package compute

import (
	"errors"
	"fmt"
	"time"

	"github.com/gbl08ma/sqalx"
	msgpack "gopkg.in/vmihailenco/msgpack.v2"

	"github.com/gpldepot/rondes/dataobjects"
)

// ErrReconciliationFailed is returned when the anomaly diff of a validation
// could not be persisted. The whole validation transaction is rolled back, so
// the round stays awaiting validation and the call can be retried as a unit.
var ErrReconciliationFailed = errors.New("ReconciliationFailure: could not persist the anomaly diff")

func loadReferential(node sqalx.Node) (*Referential, error) {
	tx, err := node.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Commit() // read-only tx

	zones, err := dataobjects.GetZones(tx)
	if err != nil {
		return nil, err
	}
	subZones, err := dataobjects.GetSubZones(tx)
	if err != nil {
		return nil, err
	}
	equipment, err := dataobjects.GetEquipment(tx)
	if err != nil {
		return nil, err
	}
	return BuildReferential(zones, subZones, equipment)
}

// SubmitRound performs the IN_PROGRESS → AWAITING_VALIDATION transition,
// refusing rounds with zero recorded observations
func SubmitRound(node sqalx.Node, round *dataobjects.Round, submitter string) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = round.RefreshCounters(tx)
	if err != nil {
		return fmt.Errorf("SubmitRound: %s", err)
	}
	err = round.ApplySubmit(submitter, time.Now())
	if err != nil {
		return err
	}
	err = round.Update(tx)
	if err != nil {
		return fmt.Errorf("SubmitRound: %s", err)
	}
	reportCache.Delete(round.ID)
	return tx.Commit()
}

// ReturnRoundToEdit performs the AWAITING_VALIDATION → IN_PROGRESS
// transition. It only touches the round's own status fields, which makes it
// the always-safe cancellation path for a submitted round.
func ReturnRoundToEdit(node sqalx.Node, round *dataobjects.Round) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = round.ApplyReturnToEdit()
	if err != nil {
		return err
	}
	err = round.Update(tx)
	if err != nil {
		return fmt.Errorf("ReturnRoundToEdit: %s", err)
	}
	reportCache.Delete(round.ID)
	return tx.Commit()
}

// ValidateRound performs the AWAITING_VALIDATION → VALIDATED transition.
// Within a single transaction it computes the official availability report,
// stores the global score on the round and reconciles the anomaly ledger.
// Any failure rolls the whole transition back: a round is never left with a
// KPI but no reconciled anomalies, or the other way around.
func ValidateRound(node sqalx.Node, round *dataobjects.Round, validator string, remark string) (*Report, *AnomalyDiff, error) {
	tx, err := node.Beginx()
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	if round.Status != dataobjects.RoundAwaitingValidation {
		return nil, nil, dataobjects.ErrInvalidTransition
	}

	ref, err := loadReferential(tx)
	if err != nil {
		return nil, nil, err
	}
	lines, err := round.Lines(tx)
	if err != nil {
		return nil, nil, fmt.Errorf("ValidateRound: %s", err)
	}

	var previousGlobal *float64
	previous, err := dataobjects.GetPreviousValidatedRound(tx, round.ISOWeek)
	switch err {
	case nil:
		previousGlobal = previous.GlobalAvailability
	case dataobjects.ErrRoundNotFound:
		// first validated round ever: no delta
	default:
		return nil, nil, fmt.Errorf("ValidateRound: %s", err)
	}

	report, err := ComputeAvailability(ref, lines, previousGlobal)
	if err != nil {
		return nil, nil, err
	}

	open, err := dataobjects.GetOpenAnomalies(tx)
	if err != nil {
		return nil, nil, fmt.Errorf("ValidateRound: %s", err)
	}
	diff, err := ReconcileAnomalies(ref, round, lines, open)
	if err != nil {
		return nil, nil, err
	}

	for _, anomaly := range diff.Opened {
		if err := anomaly.Update(tx); err != nil {
			return nil, nil, fmt.Errorf("%w: %s", ErrReconciliationFailed, err)
		}
	}
	for _, anomaly := range diff.Closed {
		if err := anomaly.Update(tx); err != nil {
			return nil, nil, fmt.Errorf("%w: %s", ErrReconciliationFailed, err)
		}
	}

	round.FilledCount = report.Filled
	round.TotalCount = report.Total
	err = round.ApplyValidate(validator, remark, time.Now(), report.Global)
	if err != nil {
		return nil, nil, err
	}
	// freeze the official report on the round: later referential changes
	// must never rewrite a validated week
	round.Report, err = encodeReport(report)
	if err != nil {
		return nil, nil, fmt.Errorf("ValidateRound: %s", err)
	}
	err = round.Update(tx)
	if err != nil {
		return nil, nil, fmt.Errorf("ValidateRound: %s", err)
	}

	err = tx.Commit()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrReconciliationFailed, err)
	}
	reportCache.SetDefault(round.ID, report)
	mainLog.Println("Round", round.ISOWeek, "validated:", len(diff.Opened), "anomalies opened,", len(diff.Closed), "closed")
	return report, diff, nil
}

func encodeReport(report *Report) ([]byte, error) {
	return msgpack.Marshal(report)
}

func decodeReport(blob []byte) (*Report, error) {
	var report Report
	err := msgpack.Unmarshal(blob, &report)
	if err != nil {
		return nil, fmt.Errorf("decodeReport: %s", err)
	}
	return &report, nil
}

// ReportForRound returns the availability report of a round. Validated rounds
// are served from the report frozen at validation time; for rounds that are
// not yet validated this is a live preview computed against the current
// referential, not the official record.
func ReportForRound(node sqalx.Node, round *dataobjects.Round) (*Report, error) {
	if cached, present := reportCache.Get(round.ID); present {
		return cached.(*Report), nil
	}

	if round.Validated && len(round.Report) > 0 {
		report, err := decodeReport(round.Report)
		if err != nil {
			return nil, fmt.Errorf("ReportForRound: %s", err)
		}
		reportCache.SetDefault(round.ID, report)
		return report, nil
	}

	tx, err := node.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Commit() // read-only tx

	ref, err := loadReferential(tx)
	if err != nil {
		return nil, err
	}
	lines, err := round.Lines(tx)
	if err != nil {
		return nil, fmt.Errorf("ReportForRound: %s", err)
	}

	var previousGlobal *float64
	previous, err := dataobjects.GetPreviousValidatedRound(tx, round.ISOWeek)
	if err == nil {
		previousGlobal = previous.GlobalAvailability
	} else if err != dataobjects.ErrRoundNotFound {
		return nil, fmt.Errorf("ReportForRound: %s", err)
	}

	report, err := ComputeAvailability(ref, lines, previousGlobal)
	if err != nil {
		return nil, err
	}
	reportCache.SetDefault(round.ID, report)
	return report, nil
}

// InvalidateReport drops the cached report for the given round
func InvalidateReport(roundID string) {
	reportCache.Delete(roundID)
}

// EnsureCurrentRound makes sure the round for the current ISO week exists,
// creating it with one empty line per active equipment when missing
func EnsureCurrentRound() (*dataobjects.Round, error) {
	return dataobjects.CreateRoundForWeek(rootSqalxNode, dataobjects.CurrentISOWeek())
}
