package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"abc", false},
		{" abc ", false},
	}
	for _, c := range cases {
		got := IsEmpty(c.input)
		if got != c.want {
			t.Errorf("IsEmpty(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestIsValidDate(t *testing.T) {
	valid := []string{"2024-01-15", "2024-02-29", "1999-12-31"}
	invalid := []string{"2024-13-01", "2023-02-29", "15-01-2024", "2024/01/15", ""}
	for _, d := range valid {
		if _, ok := IsValidDate(d); !ok {
			t.Errorf("IsValidDate(%q) = false, want true", d)
		}
	}
	for _, d := range invalid {
		if _, ok := IsValidDate(d); ok {
			t.Errorf("IsValidDate(%q) = true, want false", d)
		}
	}
}

func TestIsInSlice(t *testing.T) {
	slice := []string{"pdf", "png"}
	if !IsInSlice("pdf", slice) {
		t.Errorf("IsInSlice(pdf) = false, want true")
	}
	if IsInSlice("exe", slice) {
		t.Errorf("IsInSlice(exe) = true, want false")
	}
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	assert.NoError(t, errs.Err())

	errs.Add("date", "date is required")
	errs.Add("date", "date is invalid")
	errs.Add("type", "type is required")

	err := errs.Err()
	require.Error(t, err)
	assert.Equal(t, "date: date is required; date: date is invalid; type: type is required", err.Error())
	assert.Equal(t, map[string]string{
		"date": "date is required",
		"type": "type is required",
	}, errs.ToMap())
}

type sample struct {
	Date  string        `json:"date" validate:"required,datetime=2006-01-02"`
	Notes string        `json:"notes" validate:"max=5"`
	Items []sampleChild `json:"items" validate:"min=1,dive"`
}

type sampleChild struct {
	Name string `json:"name" validate:"required"`
}

func TestStruct(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		err := Struct(sample{Date: "2024-05-01", Items: []sampleChild{{Name: "a"}}})
		assert.NoError(t, err)
	})

	t.Run("reports json field paths", func(t *testing.T) {
		err := Struct(sample{Date: "01/05/2024", Notes: "too long", Items: []sampleChild{{}}})
		require.Error(t, err)

		var errs ValidationErrors
		require.True(t, errors.As(err, &errs))
		fields := errs.ToMap()
		assert.Equal(t, "date must match format 2006-01-02", fields["date"])
		assert.Equal(t, "notes must not exceed 5 characters", fields["notes"])
		assert.Equal(t, "items[0].name is required", fields["items[0].name"])
	})

	t.Run("empty slice", func(t *testing.T) {
		err := Struct(sample{Date: "2024-05-01"})
		var errs ValidationErrors
		require.True(t, errors.As(err, &errs))
		assert.Equal(t, "items must contain at least 1 item(s)", errs.ToMap()["items"])
	})
}
