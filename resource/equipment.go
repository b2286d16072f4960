package resource

import (
	"github.com/gbl08ma/sqalx"
	"github.com/yarf-framework/yarf"

	"github.com/gpldepot/rondes/dataobjects"
)

// Equipment composites resource
type Equipment struct {
	resource
}

type apiEquipment struct {
	ID          string `msgpack:"id" json:"id"`
	Name        string `msgpack:"name" json:"name"`
	Description string `msgpack:"description" json:"description"`
	Order       int    `msgpack:"order" json:"order"`
	Active      bool   `msgpack:"active" json:"active"`
}

type apiEquipmentWrapper struct {
	apiEquipment `msgpack:",inline"`
	ZoneID       string `msgpack:"zone" json:"zone"`
	SubZoneID    string `msgpack:"subZone" json:"subZone,omitempty"`
}

// WithNode associates a sqalx Node with this resource
func (r *Equipment) WithNode(node sqalx.Node) *Equipment {
	r.node = node
	return r
}

// Get serves HTTP GET requests on this resource
func (r *Equipment) Get(c *yarf.Context) error {
	tx, err := r.Beginx()
	if err != nil {
		return err
	}
	defer tx.Commit() // read-only tx

	if c.Param("id") != "" {
		item, err := dataobjects.GetEquipmentWithID(tx, c.Param("id"))
		if err != nil {
			return err
		}
		RenderData(c, buildEquipmentWrapper(item))
	} else {
		var equipment []*dataobjects.Equipment
		if c.Request.URL.Query().Get("filter") == "active" {
			equipment, err = dataobjects.GetActiveEquipment(tx)
		} else {
			equipment, err = dataobjects.GetEquipment(tx)
		}
		if err != nil {
			return err
		}
		apiequipment := make([]apiEquipmentWrapper, len(equipment))
		for i := range equipment {
			apiequipment[i] = buildEquipmentWrapper(equipment[i])
		}
		RenderData(c, apiequipment)
	}
	return nil
}

func buildEquipmentWrapper(item *dataobjects.Equipment) apiEquipmentWrapper {
	data := apiEquipmentWrapper{
		apiEquipment: apiEquipment{
			ID:          item.ID,
			Name:        item.Name,
			Description: item.Description,
			Order:       item.Order,
			Active:      item.Active,
		},
		ZoneID: item.Zone.ID,
	}
	if item.SubZone != nil {
		data.SubZoneID = item.SubZone.ID
	}
	return data
}
