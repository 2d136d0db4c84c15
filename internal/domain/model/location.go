//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const maxFullNameLen = 200

// Location is a branch of an organization.
type Location struct {
	ID               string `json:"id"                db:"id"`
	Name             string `json:"name"              db:"name"`
	OrganizationID   string `json:"organization_id"   db:"organization_id"`
	OrganizationName string `json:"organization_name" db:"organization_name"`
}

// Label renders "Organization - Location".
func (l Location) Label() string {
	if l.OrganizationName == "" {
		return l.Name
	}
	return l.OrganizationName + " - " + l.Name
}

// UpdateProfileRequest is the settings form payload.
type UpdateProfileRequest struct {
	FullName       string
	LocationID     string
	OrganizationID string
}

// Validate normalizes and checks the request.
func (r *UpdateProfileRequest) Validate() error {
	r.FullName = strings.TrimSpace(r.FullName)
	r.LocationID = strings.TrimSpace(r.LocationID)
	if r.FullName == "" {
		return errors.New("full_name is required")
	}
	if utf8.RuneCountInString(r.FullName) > maxFullNameLen {
		return errors.New("full_name is too long")
	}
	if r.LocationID == "" {
		return errors.New("location_id is required")
	}
	return nil
}
