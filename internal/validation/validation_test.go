package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
		errMsg   string
	}{
		{name: "valid - min length", username: "alice01"},
		{name: "valid - max length", username: "abcdefghij12345"},
		{name: "valid - dots and underscores", username: "alice.b_c"},
		{name: "invalid - empty", username: "", wantErr: true, errMsg: "cannot be empty"},
		{name: "invalid - too short", username: "alice1", wantErr: true, errMsg: "between 7 and 15"},
		{name: "invalid - too long", username: "abcdefghij123456", wantErr: true, errMsg: "between 7 and 15"},
		{name: "invalid - hyphen", username: "alice-bob", wantErr: true, errMsg: "can only contain"},
		{name: "invalid - space", username: "alice bob", wantErr: true, errMsg: "can only contain"},
		{name: "invalid - unicode", username: "алиса123", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.errMsg != "" {
				assert.Contains(t, err.Error(), tt.errMsg)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("alice@example.com"))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("alice"))
	assert.Error(t, ValidateEmail("Alice <alice@example.com>"))
}

func TestValidatePhoneNumber(t *testing.T) {
	assert.NoError(t, ValidatePhoneNumber("5551234567"))
	assert.Error(t, ValidatePhoneNumber(""))
	assert.Error(t, ValidatePhoneNumber("555123456"))
	assert.Error(t, ValidatePhoneNumber("55512345678"))
	assert.Error(t, ValidatePhoneNumber("555-123-45"))
}

func TestValidateDateOfBirth(t *testing.T) {
	today := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, ValidateDateOfBirth(time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), today))
	assert.NoError(t, ValidateDateOfBirth(today, today))
	assert.Error(t, ValidateDateOfBirth(time.Time{}, today))
	assert.Error(t, ValidateDateOfBirth(today.AddDate(0, 0, 1), today))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword(strings.Repeat("a", MinPasswordLen)))
	assert.NoError(t, ValidatePassword(strings.Repeat("a", MaxPasswordLen)))
	assert.Error(t, ValidatePassword(""))
	assert.Error(t, ValidatePassword(strings.Repeat("a", MinPasswordLen-1)))
	assert.Error(t, ValidatePassword(strings.Repeat("a", MaxPasswordLen+1)))
}

func TestValidateConfirmation(t *testing.T) {
	assert.NoError(t, ValidateConfirmation("password1", "password1"))
	assert.EqualError(t, ValidateConfirmation("password1", "password2"), "passwords must match")
}
