package dataobjects

import (
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
)

// Equipment is the smallest inspected unit. It belongs to exactly one Zone
// and optionally to one SubZone of that same Zone.
type Equipment struct {
	ID          string
	Zone        *Zone
	SubZone     *SubZone
	Name        string
	Description string
	Order       int
	Active      bool
}

// GetEquipment returns a slice with all registered equipment, ordered for display
func GetEquipment(node sqalx.Node) ([]*Equipment, error) {
	s := sdb.Select().
		OrderBy("position ASC")
	return getEquipmentWithSelect(node, s)
}

// GetActiveEquipment returns a slice with all active equipment, ordered for display
func GetActiveEquipment(node sqalx.Node) ([]*Equipment, error) {
	s := sdb.Select().
		Where(sq.Eq{"active": true}).
		OrderBy("position ASC")
	return getEquipmentWithSelect(node, s)
}

func getEquipmentWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*Equipment, error) {
	equipment := []*Equipment{}

	tx, err := node.Beginx()
	if err != nil {
		return equipment, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("id", "zone_id", "subzone_id", "name", "description", "position", "active").
		From("inspection_equipment").
		RunWith(tx).Query()
	if err != nil {
		return equipment, fmt.Errorf("getEquipmentWithSelect: %s", err)
	}

	zoneIDs := []string{}
	subZoneIDs := []sql.NullString{}
	for rows.Next() {
		var item Equipment
		var zoneID string
		var subZoneID sql.NullString
		var description sql.NullString
		err := rows.Scan(
			&item.ID,
			&zoneID,
			&subZoneID,
			&item.Name,
			&description,
			&item.Order,
			&item.Active)
		if err != nil {
			rows.Close()
			return equipment, fmt.Errorf("getEquipmentWithSelect: %s", err)
		}
		item.Description = description.String
		equipment = append(equipment, &item)
		zoneIDs = append(zoneIDs, zoneID)
		subZoneIDs = append(subZoneIDs, subZoneID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return equipment, fmt.Errorf("getEquipmentWithSelect: %s", err)
	}
	rows.Close()

	for i := range zoneIDs {
		equipment[i].Zone, err = GetZone(tx, zoneIDs[i])
		if err != nil {
			return equipment, fmt.Errorf("getEquipmentWithSelect: %s", err)
		}
		if subZoneIDs[i].Valid {
			equipment[i].SubZone, err = GetSubZone(tx, subZoneIDs[i].String)
			if err != nil {
				return equipment, fmt.Errorf("getEquipmentWithSelect: %s", err)
			}
		}
	}
	return equipment, nil
}

// GetEquipmentWithID returns the Equipment with the given ID
func GetEquipmentWithID(node sqalx.Node, id string) (*Equipment, error) {
	s := sdb.Select().
		Where(sq.Eq{"id": id})
	equipment, err := getEquipmentWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(equipment) == 0 {
		return nil, errors.New("Equipment not found")
	}
	return equipment[0], nil
}

// OpenAnomaly returns the open anomaly for this equipment, if any
func (equipment *Equipment) OpenAnomaly(node sqalx.Node) (*Anomaly, error) {
	s := sdb.Select().
		Where(sq.Eq{"equipment_id": equipment.ID}).
		Where(sq.Eq{"status": string(AnomalyOpen)})
	anomalies, err := getAnomaliesWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(anomalies) == 0 {
		return nil, errors.New("No open anomaly for this equipment")
	}
	return anomalies[0], nil
}

// Update adds or updates the equipment
func (equipment *Equipment) Update(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	subZoneID := sql.NullString{}
	if equipment.SubZone != nil {
		subZoneID = sql.NullString{String: equipment.SubZone.ID, Valid: true}
	}

	_, err = sdb.Insert("inspection_equipment").
		Columns("id", "zone_id", "subzone_id", "name", "description", "position", "active").
		Values(equipment.ID, equipment.Zone.ID, subZoneID, equipment.Name, equipment.Description, equipment.Order, equipment.Active).
		Suffix("ON CONFLICT (id) DO UPDATE SET zone_id = ?, subzone_id = ?, name = ?, description = ?, position = ?, active = ?",
			equipment.Zone.ID, subZoneID, equipment.Name, equipment.Description, equipment.Order, equipment.Active).
		RunWith(tx).Exec()

	if err != nil {
		return errors.New("AddEquipment: " + err.Error())
	}
	return tx.Commit()
}

// Delete deletes the equipment
func (equipment *Equipment) Delete(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Delete("inspection_equipment").
		Where(sq.Eq{"id": equipment.ID}).RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("RemoveEquipment: %s", err)
	}
	return tx.Commit()
}
