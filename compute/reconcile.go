package compute

import (
	"errors"
	"fmt"

	"github.com/rickb777/date"
	uuid "github.com/satori/go.uuid"

	"github.com/gpldepot/rondes/dataobjects"
)

// ErrLedgerInconsistent is returned when the open-anomaly ledger passed in
// already violates the at-most-one-open-per-equipment invariant
var ErrLedgerInconsistent = errors.New("LedgerInconsistent: more than one open anomaly for the same equipment")

// AnomalyDiff is the outcome of reconciling one round against the open
// anomaly ledger. Opened and Closed are the records the caller must persist;
// Ledger is the full set of anomalies that remain open afterwards.
type AnomalyDiff struct {
	Opened []*dataobjects.Anomaly
	Closed []*dataobjects.Anomaly
	Ledger []*dataobjects.Anomaly
}

// ReconcileAnomalies synchronizes the anomaly ledger with one round's
// observations:
//
//   - a non-operational observation with no open record opens a new anomaly
//   - a non-operational observation with an open record leaves it untouched
//   - an operational observation with an open record closes it
//   - equipment without an observation this round is left untouched
//
// The opening and closing reference date is the Monday of the round's ISO
// week, so re-running the reconciliation for the same round is idempotent:
// the second run produces an empty diff. Nothing is mutated in place; closed
// records in the diff are copies of the ledger entries.
func ReconcileAnomalies(ref *Referential, round *dataobjects.Round, lines []*dataobjects.RoundLine, open []*dataobjects.Anomaly) (*AnomalyDiff, error) {
	refDate, err := dataobjects.ISOWeekStart(round.ISOWeek)
	if err != nil {
		return nil, fmt.Errorf("ReconcileAnomalies: %s", err)
	}

	openByEquipment := make(map[string]*dataobjects.Anomaly)
	for _, anomaly := range open {
		if anomaly.Status != dataobjects.AnomalyOpen {
			return nil, fmt.Errorf("ReconcileAnomalies: anomaly %s in the open ledger is not open", anomaly.ID)
		}
		if _, present := openByEquipment[anomaly.Equipment.ID]; present {
			return nil, fmt.Errorf("%w: equipment %s", ErrLedgerInconsistent, anomaly.Equipment.ID)
		}
		openByEquipment[anomaly.Equipment.ID] = anomaly
	}

	diff := &AnomalyDiff{
		Opened: []*dataobjects.Anomaly{},
		Closed: []*dataobjects.Anomaly{},
		Ledger: []*dataobjects.Anomaly{},
	}
	closedEquipment := make(map[string]bool)

	for _, line := range lines {
		if !line.Observed() {
			// absence is not evidence of resolution
			continue
		}
		if line.Equipment == nil {
			return nil, fmt.Errorf("%w: observation %s has no equipment", ErrInvalidHierarchy, line.ID)
		}
		item, present := ref.EquipmentWithID(line.Equipment.ID)
		if !present {
			return nil, fmt.Errorf("%w: observation references equipment %s outside the snapshot", ErrInvalidHierarchy, line.Equipment.ID)
		}
		existing := openByEquipment[item.ID]

		switch {
		case line.Status.Anomalous() && existing == nil:
			id, err := uuid.NewV4()
			if err != nil {
				return nil, err
			}
			anomaly := &dataobjects.Anomaly{
				ID:             id.String(),
				Equipment:      item,
				ZoneID:         item.Zone.ID,
				OpeningRoundID: round.ID,
				OpeningWeek:    round.ISOWeek,
				OpeningDate:    refDate.UTC(),
				InitialStatus:  line.Status,
				InitialComment: line.Comment,
				Urgent:         line.Urgent,
				Status:         dataobjects.AnomalyOpen,
			}
			if item.SubZone != nil {
				anomaly.SubZoneID = item.SubZone.ID
			}
			diff.Opened = append(diff.Opened, anomaly)
			// register the new record so a duplicate line for the same
			// equipment cannot open a second one within this call
			openByEquipment[item.ID] = anomaly
		case line.Status == dataobjects.StatusOperational && existing != nil:
			closed := *existing
			closed.Status = dataobjects.AnomalyResolved
			closed.ClosingRoundID = round.ID
			closed.ClosingWeek = round.ISOWeek
			closed.ClosingDate = refDate.UTC()
			closed.Resolved = true
			days := int(refDate.Sub(date.NewAt(existing.OpeningDate)))
			if days < 1 {
				days = 1
			}
			closed.DurationDays = days
			diff.Closed = append(diff.Closed, &closed)
			closedEquipment[item.ID] = true
		}
	}

	for _, anomaly := range open {
		if !closedEquipment[anomaly.Equipment.ID] {
			diff.Ledger = append(diff.Ledger, anomaly)
		}
	}
	for _, anomaly := range diff.Opened {
		if !closedEquipment[anomaly.Equipment.ID] {
			diff.Ledger = append(diff.Ledger, anomaly)
		}
	}
	return diff, nil
}
