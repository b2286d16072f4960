package resource

import (
	"net/http"

	"github.com/gbl08ma/sqalx"
	uuid "github.com/satori/go.uuid"
	"github.com/yarf-framework/yarf"

	"github.com/gpldepot/rondes/dataobjects"
)

// Recipient composites resource
type Recipient struct {
	resource
}

type apiRecipient struct {
	ID     string `msgpack:"id" json:"id"`
	Name   string `msgpack:"name" json:"name"`
	Email  string `msgpack:"email" json:"email"`
	Active bool   `msgpack:"active" json:"active"`
}

// WithNode associates a sqalx Node with this resource
func (r *Recipient) WithNode(node sqalx.Node) *Recipient {
	r.node = node
	return r
}

// Get serves HTTP GET requests on this resource
func (r *Recipient) Get(c *yarf.Context) error {
	tx, err := r.Beginx()
	if err != nil {
		return err
	}
	defer tx.Commit() // read-only tx

	if c.Param("id") != "" {
		recipient, err := dataobjects.GetRecipient(tx, c.Param("id"))
		if err != nil {
			return err
		}
		RenderData(c, buildRecipientWrapper(recipient))
		return nil
	}

	recipients, err := dataobjects.GetRecipients(tx)
	if err != nil {
		return err
	}
	apirecipients := make([]apiRecipient, len(recipients))
	for i := range recipients {
		apirecipients[i] = buildRecipientWrapper(recipients[i])
	}
	RenderData(c, apirecipients)
	return nil
}

// Post serves HTTP POST requests on this resource
func (r *Recipient) Post(c *yarf.Context) error {
	var request apiRecipient
	err := r.DecodeRequest(c, &request)
	if err != nil {
		return err
	}
	if request.Email == "" {
		return &yarf.CustomError{
			HTTPCode:  http.StatusBadRequest,
			ErrorMsg:  "An email address is required",
			ErrorBody: "An email address is required",
		}
	}

	tx, err := r.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	recipient := &dataobjects.Recipient{
		ID:     request.ID,
		Name:   request.Name,
		Email:  request.Email,
		Active: request.Active,
	}
	if recipient.ID == "" {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		recipient.ID = id.String()
		recipient.Active = true
	}

	err = recipient.Update(tx)
	if err != nil {
		return err
	}
	err = tx.Commit()
	if err != nil {
		return err
	}

	c.Response.WriteHeader(http.StatusCreated)
	RenderData(c, buildRecipientWrapper(recipient))
	return nil
}

func buildRecipientWrapper(recipient *dataobjects.Recipient) apiRecipient {
	return apiRecipient{
		ID:     recipient.ID,
		Name:   recipient.Name,
		Email:  recipient.Email,
		Active: recipient.Active,
	}
}
