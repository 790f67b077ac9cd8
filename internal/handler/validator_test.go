package handler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEntryStruct struct {
	Kind    string `validate:"round_kind"`
	Source  string `validate:"entry_source"`
	UserID  string `validate:"omitempty,uuid"`
	Tickets int64  `validate:"omitempty,gt=0"`
}

func TestValidator_RoundKindValidation(t *testing.T) {
	InitValidator()
	v := GetValidator()

	tests := []struct {
		name    string
		kind    string
		wantErr bool
	}{
		{"valid daily", "DAILY", false},
		{"valid weekly", "WEEKLY", false},
		{"empty kind allowed", "", false},
		{"lowercase accepted", "daily", false},
		{"invalid kind", "MONTHLY", true},
		{"garbage", "xyz", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateStruct(testEntryStruct{Kind: tt.kind})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidator_EntrySourceValidation(t *testing.T) {
	InitValidator()
	v := GetValidator()

	tests := []struct {
		name    string
		source  string
		wantErr bool
	}{
		{"valid buy", "BUY", false},
		{"valid earned", "EARNED", false},
		{"empty source allowed", "", false},
		{"lowercase accepted", "buy", false},
		{"invalid source", "GIFT", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateStruct(testEntryStruct{Source: tt.source})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidator_UUIDAndTickets(t *testing.T) {
	InitValidator()
	v := GetValidator()

	t.Run("valid uuid passes", func(t *testing.T) {
		err := v.ValidateStruct(testEntryStruct{UserID: "6ba7b810-9dad-11d1-80b4-00c04fd430c8"})
		assert.NoError(t, err)
	})

	t.Run("malformed uuid fails", func(t *testing.T) {
		err := v.ValidateStruct(testEntryStruct{UserID: "not-a-uuid"})
		assert.Error(t, err)
	})

	t.Run("negative tickets fail", func(t *testing.T) {
		err := v.ValidateStruct(testEntryStruct{Tickets: -1})
		assert.Error(t, err)
	})
}

func TestFormatValidationError(t *testing.T) {
	InitValidator()
	v := GetValidator()

	t.Run("maps required fields to friendly messages", func(t *testing.T) {
		type req struct {
			UserID string `validate:"required,uuid"`
		}
		err := v.ValidateStruct(req{})
		require.Error(t, err)

		fields := FormatValidationError(err)
		assert.Equal(t, "This field is required", fields["userid"])
	})

	t.Run("maps round_kind failures", func(t *testing.T) {
		err := v.ValidateStruct(testEntryStruct{Kind: "MONTHLY"})
		require.Error(t, err)

		fields := FormatValidationError(err)
		assert.True(t, strings.Contains(fields["kind"], "DAILY"))
	})

	t.Run("non-validation error yields generic message", func(t *testing.T) {
		fields := FormatValidationError(assert.AnError)
		assert.Equal(t, "Invalid request format", fields["error"])
	})

	t.Run("nil error yields nil map", func(t *testing.T) {
		assert.Nil(t, FormatValidationError(nil))
	})
}
