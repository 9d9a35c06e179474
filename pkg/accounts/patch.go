package accounts

import (
	"encoding/json"

	"github.com/taskforge/taskforge/pkg/apperrors"
)

// ProfilePatch is a validated partial update of the mutable profile fields.
// AgeSet distinguishes "age present in the request" from "age omitted", so a
// client can clear the field with an explicit null.
type ProfilePatch struct {
	Name   *string
	Age    *int
	AgeSet bool
	Email  *string
}

// profileFields is the allowed key set for PATCH /users/me.
var profileFields = map[string]bool{
	"name":  true,
	"age":   true,
	"email": true,
}

// ParseProfilePatch builds a ProfilePatch from a raw JSON body. Any key
// outside the allowed set rejects the whole patch before anything is applied.
func ParseProfilePatch(body map[string]json.RawMessage) (*ProfilePatch, error) {
	if len(body) == 0 {
		return nil, apperrors.NewValidationError("no update fields provided")
	}

	for key := range body {
		if !profileFields[key] {
			return nil, apperrors.NewInvalidFieldError(key)
		}
	}

	patch := &ProfilePatch{}

	if raw, ok := body["name"]; ok {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return nil, apperrors.NewValidationError("name must be a string")
		}
		patch.Name = &name
	}

	if raw, ok := body["age"]; ok {
		var age *int
		if err := json.Unmarshal(raw, &age); err != nil {
			return nil, apperrors.NewValidationError("age must be a number")
		}
		patch.Age = age
		patch.AgeSet = true
	}

	if raw, ok := body["email"]; ok {
		var email string
		if err := json.Unmarshal(raw, &email); err != nil {
			return nil, apperrors.NewValidationError("email must be a string")
		}
		patch.Email = &email
	}

	return patch, nil
}

// passwordFields is the exact key set required by PUT /users/password.
var passwordFields = map[string]bool{
	"oldPassword": true,
	"newPassword": true,
}

// PasswordChange carries both credentials for an explicit password change.
type PasswordChange struct {
	OldPassword string
	NewPassword string
}

// ParsePasswordChange validates that the body contains exactly the old and
// new password keys, both non-empty, before any storage access happens.
func ParsePasswordChange(body map[string]json.RawMessage) (*PasswordChange, error) {
	for key := range body {
		if !passwordFields[key] {
			return nil, apperrors.NewInvalidFieldError(key)
		}
	}

	change := &PasswordChange{}

	raw, ok := body["oldPassword"]
	if !ok {
		return nil, apperrors.NewMissingFieldError("oldPassword")
	}
	if err := json.Unmarshal(raw, &change.OldPassword); err != nil || change.OldPassword == "" {
		return nil, apperrors.NewMissingFieldError("oldPassword")
	}

	raw, ok = body["newPassword"]
	if !ok {
		return nil, apperrors.NewMissingFieldError("newPassword")
	}
	if err := json.Unmarshal(raw, &change.NewPassword); err != nil || change.NewPassword == "" {
		return nil, apperrors.NewMissingFieldError("newPassword")
	}

	return change, nil
}
