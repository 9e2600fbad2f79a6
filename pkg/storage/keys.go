package storage

import (
	"database/sql"
	"encoding/json"

	"github.com/sw33tLie/jirascope/pkg/ticket"
)

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullable(p *string) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func userCols(u *ticket.User) (id, name, email interface{}) {
	if u == nil {
		return nil, nil, nil
	}
	return nullable(u.ID), nullable(u.DisplayName), nullable(u.Email)
}

// rawText stores raw JSON verbatim; an empty or null value becomes NULL.
func rawText(raw json.RawMessage) interface{} {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return string(raw)
}

func ptr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func userFrom(id, name, email sql.NullString) *ticket.User {
	if !id.Valid && !name.Valid && !email.Valid {
		return nil
	}
	return &ticket.User{ID: ptr(id), DisplayName: ptr(name), Email: ptr(email)}
}
