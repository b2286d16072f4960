package dataobjects

import (
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
)

// Zone is a physical area of the depot under weekly inspection
type Zone struct {
	ID        string
	Name      string
	Label     string
	Order     int
	Active    bool
	KPIWeight float64
}

// GetZones returns a slice with all registered zones, ordered for display
func GetZones(node sqalx.Node) ([]*Zone, error) {
	s := sdb.Select().
		OrderBy("position ASC")
	return getZonesWithSelect(node, s)
}

// GetActiveZones returns a slice with all active zones, ordered for display
func GetActiveZones(node sqalx.Node) ([]*Zone, error) {
	s := sdb.Select().
		Where(sq.Eq{"active": true}).
		OrderBy("position ASC")
	return getZonesWithSelect(node, s)
}

func getZonesWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*Zone, error) {
	zones := []*Zone{}

	tx, err := node.Beginx()
	if err != nil {
		return zones, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("id", "name", "label", "position", "active", "kpi_weight").
		From("inspection_zone").
		RunWith(tx).Query()
	if err != nil {
		return zones, fmt.Errorf("getZonesWithSelect: %s", err)
	}
	defer rows.Close()

	for rows.Next() {
		var zone Zone
		err := rows.Scan(
			&zone.ID,
			&zone.Name,
			&zone.Label,
			&zone.Order,
			&zone.Active,
			&zone.KPIWeight)
		if err != nil {
			return zones, fmt.Errorf("getZonesWithSelect: %s", err)
		}
		zones = append(zones, &zone)
	}
	if err := rows.Err(); err != nil {
		return zones, fmt.Errorf("getZonesWithSelect: %s", err)
	}
	return zones, nil
}

// GetZone returns the Zone with the given ID
func GetZone(node sqalx.Node, id string) (*Zone, error) {
	s := sdb.Select().
		Where(sq.Eq{"id": id})
	zones, err := getZonesWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(zones) == 0 {
		return nil, errors.New("Zone not found")
	}
	return zones[0], nil
}

// SubZones returns the sub-zones of this zone, ordered for display
func (zone *Zone) SubZones(node sqalx.Node) ([]*SubZone, error) {
	s := sdb.Select().
		Where(sq.Eq{"zone_id": zone.ID}).
		OrderBy("position ASC")
	return getSubZonesWithSelect(node, s)
}

// Equipment returns the equipment attached to this zone, ordered for display
func (zone *Zone) Equipment(node sqalx.Node) ([]*Equipment, error) {
	s := sdb.Select().
		Where(sq.Eq{"zone_id": zone.ID}).
		OrderBy("position ASC")
	return getEquipmentWithSelect(node, s)
}

// Update adds or updates the zone
func (zone *Zone) Update(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Insert("inspection_zone").
		Columns("id", "name", "label", "position", "active", "kpi_weight").
		Values(zone.ID, zone.Name, zone.Label, zone.Order, zone.Active, zone.KPIWeight).
		Suffix("ON CONFLICT (id) DO UPDATE SET name = ?, label = ?, position = ?, active = ?, kpi_weight = ?",
			zone.Name, zone.Label, zone.Order, zone.Active, zone.KPIWeight).
		RunWith(tx).Exec()

	if err != nil {
		return errors.New("AddZone: " + err.Error())
	}
	return tx.Commit()
}

// Delete deletes the zone
func (zone *Zone) Delete(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Delete("inspection_zone").
		Where(sq.Eq{"id": zone.ID}).RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("RemoveZone: %s", err)
	}
	return tx.Commit()
}
