package resource

import (
	"github.com/gbl08ma/sqalx"
	"github.com/yarf-framework/yarf"

	"github.com/gpldepot/rondes/dataobjects"
)

// Zone composites resource
type Zone struct {
	resource
}

type apiZone struct {
	ID        string  `msgpack:"id" json:"id"`
	Name      string  `msgpack:"name" json:"name"`
	Label     string  `msgpack:"label" json:"label"`
	Order     int     `msgpack:"order" json:"order"`
	Active    bool    `msgpack:"active" json:"active"`
	KPIWeight float64 `msgpack:"kpiWeight" json:"kpiWeight"`
}

type apiSubZone struct {
	ID     string `msgpack:"id" json:"id"`
	Name   string `msgpack:"name" json:"name"`
	Label  string `msgpack:"label" json:"label"`
	Order  int    `msgpack:"order" json:"order"`
	Active bool   `msgpack:"active" json:"active"`
}

type apiZoneWrapper struct {
	apiZone  `msgpack:",inline"`
	SubZones []apiSubZoneWrapper   `msgpack:"subZones" json:"subZones"`
	Direct   []apiEquipmentWrapper `msgpack:"direct" json:"direct"`
}

type apiSubZoneWrapper struct {
	apiSubZone `msgpack:",inline"`
	Equipment  []apiEquipmentWrapper `msgpack:"equipment" json:"equipment"`
}

// WithNode associates a sqalx Node with this resource
func (r *Zone) WithNode(node sqalx.Node) *Zone {
	r.node = node
	return r
}

// Get serves HTTP GET requests on this resource
func (r *Zone) Get(c *yarf.Context) error {
	tx, err := r.Beginx()
	if err != nil {
		return err
	}
	defer tx.Commit() // read-only tx

	if c.Param("id") != "" {
		zone, err := dataobjects.GetZone(tx, c.Param("id"))
		if err != nil {
			return err
		}
		data, err := buildZoneWrapper(tx, zone)
		if err != nil {
			return err
		}
		RenderData(c, data)
	} else {
		zones, err := dataobjects.GetZones(tx)
		if err != nil {
			return err
		}
		apizones := make([]apiZoneWrapper, len(zones))
		for i := range zones {
			apizones[i], err = buildZoneWrapper(tx, zones[i])
			if err != nil {
				return err
			}
		}
		RenderData(c, apizones)
	}
	return nil
}

func buildZoneWrapper(node sqalx.Node, zone *dataobjects.Zone) (apiZoneWrapper, error) {
	data := apiZoneWrapper{
		apiZone: apiZone{
			ID:        zone.ID,
			Name:      zone.Name,
			Label:     zone.Label,
			Order:     zone.Order,
			Active:    zone.Active,
			KPIWeight: zone.KPIWeight,
		},
		SubZones: []apiSubZoneWrapper{},
		Direct:   []apiEquipmentWrapper{},
	}

	subZones, err := zone.SubZones(node)
	if err != nil {
		return data, err
	}
	for _, subZone := range subZones {
		sw := apiSubZoneWrapper{
			apiSubZone: apiSubZone{
				ID:     subZone.ID,
				Name:   subZone.Name,
				Label:  subZone.Label,
				Order:  subZone.Order,
				Active: subZone.Active,
			},
			Equipment: []apiEquipmentWrapper{},
		}
		equipment, err := subZone.Equipment(node)
		if err != nil {
			return data, err
		}
		for _, item := range equipment {
			sw.Equipment = append(sw.Equipment, buildEquipmentWrapper(item))
		}
		data.SubZones = append(data.SubZones, sw)
	}

	equipment, err := zone.Equipment(node)
	if err != nil {
		return data, err
	}
	for _, item := range equipment {
		if item.SubZone == nil {
			data.Direct = append(data.Direct, buildEquipmentWrapper(item))
		}
	}
	return data, nil
}
