package dataobjects

import (
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
)

// SubZone is an optional grouping of equipment under a Zone
// (e.g. one of several storage spheres)
type SubZone struct {
	ID     string
	Zone   *Zone
	Name   string
	Label  string
	Order  int
	Active bool
}

// GetSubZones returns a slice with all registered sub-zones, ordered for display
func GetSubZones(node sqalx.Node) ([]*SubZone, error) {
	s := sdb.Select().
		OrderBy("position ASC")
	return getSubZonesWithSelect(node, s)
}

func getSubZonesWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*SubZone, error) {
	subZones := []*SubZone{}

	tx, err := node.Beginx()
	if err != nil {
		return subZones, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("id", "zone_id", "name", "label", "position", "active").
		From("inspection_subzone").
		RunWith(tx).Query()
	if err != nil {
		return subZones, fmt.Errorf("getSubZonesWithSelect: %s", err)
	}

	zoneIDs := []string{}
	for rows.Next() {
		var subZone SubZone
		var zoneID string
		err := rows.Scan(
			&subZone.ID,
			&zoneID,
			&subZone.Name,
			&subZone.Label,
			&subZone.Order,
			&subZone.Active)
		if err != nil {
			rows.Close()
			return subZones, fmt.Errorf("getSubZonesWithSelect: %s", err)
		}
		subZones = append(subZones, &subZone)
		zoneIDs = append(zoneIDs, zoneID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return subZones, fmt.Errorf("getSubZonesWithSelect: %s", err)
	}
	rows.Close()

	for i := range zoneIDs {
		subZones[i].Zone, err = GetZone(tx, zoneIDs[i])
		if err != nil {
			return subZones, fmt.Errorf("getSubZonesWithSelect: %s", err)
		}
	}
	return subZones, nil
}

// GetSubZone returns the SubZone with the given ID
func GetSubZone(node sqalx.Node, id string) (*SubZone, error) {
	s := sdb.Select().
		Where(sq.Eq{"id": id})
	subZones, err := getSubZonesWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(subZones) == 0 {
		return nil, errors.New("SubZone not found")
	}
	return subZones[0], nil
}

// Equipment returns the equipment attached to this sub-zone, ordered for display
func (subZone *SubZone) Equipment(node sqalx.Node) ([]*Equipment, error) {
	s := sdb.Select().
		Where(sq.Eq{"subzone_id": subZone.ID}).
		OrderBy("position ASC")
	return getEquipmentWithSelect(node, s)
}

// Update adds or updates the sub-zone
func (subZone *SubZone) Update(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Insert("inspection_subzone").
		Columns("id", "zone_id", "name", "label", "position", "active").
		Values(subZone.ID, subZone.Zone.ID, subZone.Name, subZone.Label, subZone.Order, subZone.Active).
		Suffix("ON CONFLICT (id) DO UPDATE SET zone_id = ?, name = ?, label = ?, position = ?, active = ?",
			subZone.Zone.ID, subZone.Name, subZone.Label, subZone.Order, subZone.Active).
		RunWith(tx).Exec()

	if err != nil {
		return errors.New("AddSubZone: " + err.Error())
	}
	return tx.Commit()
}

// Delete deletes the sub-zone
func (subZone *SubZone) Delete(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Delete("inspection_subzone").
		Where(sq.Eq{"id": subZone.ID}).RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("RemoveSubZone: %s", err)
	}
	return tx.Commit()
}
