package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// UserType is the account type the backend assigns at signup.
type UserType string

const (
	UserTypePatient   UserType = "patient"
	UserTypeDoctor    UserType = "doctor"
	UserTypeCaretaker UserType = "caretaker"
	UserTypeHospital  UserType = "hospital"
)

// UserTypes lists the account types offered on the signup form, in display order.
var UserTypes = []UserType{UserTypePatient, UserTypeDoctor, UserTypeCaretaker, UserTypeHospital}

// Known reports whether t is one of the four account types.
func (t UserType) Known() bool {
	switch t {
	case UserTypePatient, UserTypeDoctor, UserTypeCaretaker, UserTypeHospital:
		return true
	}
	return false
}

// UserID is an opaque identifier. The backend sends integers but nothing here
// depends on that, so both JSON numbers and strings are accepted.
type UserID string

func (id *UserID) UnmarshalJSON(data []byte) error {
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
		*id = UserID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("user id: %w", err)
	}
	*id = UserID(n.String())
	return nil
}

func (id UserID) String() string { return string(id) }

// UserProfile is the user record returned by the auth endpoints and kept in the session.
type UserProfile struct {
	ID        UserID   `json:"id"`
	Email     string   `json:"email,omitempty"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	UserType  UserType `json:"userType"`
}

// FullName joins first and last name, skipping blanks.
func (u UserProfile) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// WellFormed reports whether the profile carries the fields routing depends on.
func (u UserProfile) WellFormed() bool {
	return u.ID != "" && u.UserType != ""
}
