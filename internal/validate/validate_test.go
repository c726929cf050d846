package validate

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "trims whitespace", input: "  Health  ", want: "Health"},
		{name: "accepts unicode at the limit", input: strings.Repeat("é", MaxNameLength), want: strings.Repeat("é", MaxNameLength)},
		{name: "empty", input: "", wantErr: true},
		{name: "only spaces", input: "   ", wantErr: true},
		{name: "too long", input: strings.Repeat("a", MaxNameLength+1), wantErr: true},
		{name: "null byte", input: "a\x00b", wantErr: true},
		{name: "carriage return", input: "a\rb", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Name("name", tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestError_CarriesField(t *testing.T) {
	_, err := Name("title", "")

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "title", verr.Field)
	assert.Equal(t, "title: cannot be empty", err.Error())
}

func TestColor(t *testing.T) {
	for _, ok := range []string{"", "#FFF", "#3b82f6", "#A1B2C3"} {
		assert.NoError(t, Color(ok), ok)
	}
	for _, bad := range []string{"FFF", "#FFFF", "#GGGGGG", "blue", "#12345"} {
		assert.ErrorIs(t, Color(bad), ErrInvalid, bad)
	}
}

func TestID(t *testing.T) {
	assert.NoError(t, ID("id", uuid.NewString()))
	assert.ErrorIs(t, ID("id", "not-a-uuid"), ErrInvalid)
	assert.NoError(t, OptionalID("goal_id", nil))
}

func TestDateRange(t *testing.T) {
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 5)

	assert.NoError(t, DateRange(&start, &end))
	assert.NoError(t, DateRange(&start, nil))
	assert.NoError(t, DateRange(&start, &start))
	assert.ErrorIs(t, DateRange(&end, &start), ErrInvalid)
}

func TestProgressAndMinutes(t *testing.T) {
	assert.NoError(t, Progress(0))
	assert.NoError(t, Progress(100))
	assert.Error(t, Progress(-1))
	assert.Error(t, Progress(101))

	ok, tooMany, negative := 90, MaxMinutes+1, -5
	assert.NoError(t, Minutes("estimated_minutes", nil))
	assert.NoError(t, Minutes("estimated_minutes", &ok))
	assert.Error(t, Minutes("estimated_minutes", &tooMany))
	assert.Error(t, Minutes("actual_minutes", &negative))
}

func TestRecurrenceRule(t *testing.T) {
	rule := func(s string) *string { return &s }

	tests := []struct {
		name    string
		rule    *string
		wantErr bool
	}{
		{name: "nil", rule: nil},
		{name: "empty", rule: rule("")},
		{name: "daily", rule: rule("FREQ=DAILY")},
		{name: "weekly with parts", rule: rule("FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE")},
		{name: "missing FREQ", rule: rule("INTERVAL=2"), wantErr: true},
		{name: "hourly unsupported", rule: rule("FREQ=HOURLY"), wantErr: true},
		{name: "malformed part", rule: rule("FREQ=DAILY;COUNT"), wantErr: true},
		{name: "too long", rule: rule("FREQ=DAILY;X=" + strings.Repeat("1", MaxRecurrenceRuleLength)), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RecurrenceRule(tt.rule)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestJoin(t *testing.T) {
	first := errors.New("first")
	assert.NoError(t, Join(nil, nil))
	assert.Equal(t, first, Join(nil, first, errors.New("second")))
}
