package dataobjects

import (
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
)

// Recipient is an email recipient of the weekly inspection report.
// The report assembly and sending themselves happen outside this service.
type Recipient struct {
	ID     string
	Name   string
	Email  string
	Active bool
}

// GetRecipients returns a slice with all registered recipients, sorted by name
func GetRecipients(node sqalx.Node) ([]*Recipient, error) {
	s := sdb.Select().
		OrderBy("name ASC")
	return getRecipientsWithSelect(node, s)
}

func getRecipientsWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*Recipient, error) {
	recipients := []*Recipient{}

	tx, err := node.Beginx()
	if err != nil {
		return recipients, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("id", "name", "email", "active").
		From("inspection_recipient").
		RunWith(tx).Query()
	if err != nil {
		return recipients, fmt.Errorf("getRecipientsWithSelect: %s", err)
	}
	defer rows.Close()

	for rows.Next() {
		var recipient Recipient
		err := rows.Scan(
			&recipient.ID,
			&recipient.Name,
			&recipient.Email,
			&recipient.Active)
		if err != nil {
			return recipients, fmt.Errorf("getRecipientsWithSelect: %s", err)
		}
		recipients = append(recipients, &recipient)
	}
	if err := rows.Err(); err != nil {
		return recipients, fmt.Errorf("getRecipientsWithSelect: %s", err)
	}
	return recipients, nil
}

// GetRecipient returns the Recipient with the given ID
func GetRecipient(node sqalx.Node, id string) (*Recipient, error) {
	s := sdb.Select().
		Where(sq.Eq{"id": id})
	recipients, err := getRecipientsWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		return nil, errors.New("Recipient not found")
	}
	return recipients[0], nil
}

// Update adds or updates the recipient
func (recipient *Recipient) Update(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Insert("inspection_recipient").
		Columns("id", "name", "email", "active").
		Values(recipient.ID, recipient.Name, recipient.Email, recipient.Active).
		Suffix("ON CONFLICT (id) DO UPDATE SET name = ?, email = ?, active = ?",
			recipient.Name, recipient.Email, recipient.Active).
		RunWith(tx).Exec()

	if err != nil {
		return errors.New("AddRecipient: " + err.Error())
	}
	return tx.Commit()
}

// Delete deletes the recipient
func (recipient *Recipient) Delete(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Delete("inspection_recipient").
		Where(sq.Eq{"id": recipient.ID}).RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("RemoveRecipient: %s", err)
	}
	return tx.Commit()
}
