package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ID is a backend identifier. The API emits both numeric and UUID ids.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// IDFromIRI extracts the trailing path segment of an IRI such as
// "/events/42".
func IDFromIRI(iri string) ID {
	iri = strings.TrimRight(iri, "/")
	if i := strings.LastIndexByte(iri, '/'); i >= 0 {
		return ID(iri[i+1:])
	}
	return ID(iri)
}

// EventIRI builds the IRI the backend uses for an event.
func EventIRI(id ID) string { return "/events/" + string(id) }

// UserIRI builds the IRI the backend uses for a user.
func UserIRI(id ID) string { return "/users/" + string(id) }

// EventRef is an event link that may arrive either as a bare IRI or as an
// embedded object.
type EventRef struct {
	Event
}

func (r *EventRef) UnmarshalJSON(data []byte) error {
	iri, ok, err := decodeIRI(data)
	if err != nil {
		return err
	}
	if ok {
		r.Event = Event{IRI: iri, ID: IDFromIRI(iri)}
		return nil
	}
	if err := json.Unmarshal(data, &r.Event); err != nil {
		return err
	}
	if r.ID == "" && r.IRI != "" {
		r.ID = IDFromIRI(r.IRI)
	}
	return nil
}

// UserRef is the user counterpart of EventRef.
type UserRef struct {
	User
}

func (r *UserRef) UnmarshalJSON(data []byte) error {
	iri, ok, err := decodeIRI(data)
	if err != nil {
		return err
	}
	if ok {
		r.User = User{IRI: iri, ID: IDFromIRI(iri)}
		return nil
	}
	if err := json.Unmarshal(data, &r.User); err != nil {
		return err
	}
	if r.ID == "" && r.IRI != "" {
		r.ID = IDFromIRI(r.IRI)
	}
	return nil
}

func decodeIRI(data []byte) (string, bool, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '"' {
		return "", false, nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", false, err
	}
	return s, true, nil
}
