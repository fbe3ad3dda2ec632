// Package repos implements the domain repository interfaces on top of the
// document store. Each repository maps its entity through JSON, pushes filter
// trees down to the store and translates store errors into domain errors.
package repos

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/shulehq/shule/core"
)

// toDoc flattens an entity into its stored document form. Store-managed
// fields are stripped so the backend always assigns them.
func toDoc(v interface{}) (core.Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encoding entity")
	}
	var doc core.Document
	if err = json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, "encoding entity")
	}
	delete(doc, "id")
	delete(doc, "createdAt")
	delete(doc, "updatedAt")
	return doc, nil
}

func fromDoc(doc core.Document, dst interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "decoding document")
	}
	return errors.Wrap(json.Unmarshal(raw, dst), "decoding document")
}

// listCap bounds unpaginated helper listings (by-role, by-parent, by-grade).
const listCap = 1000
