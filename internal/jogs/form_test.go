package jogs_test

import (
	"testing"
	"time"

	"github.com/2beens/jogtracker/internal/jogs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseForm_NewJog(t *testing.T) {
	jog, sub, err := jogs.ParseForm(jogs.Form{
		Date:     " 2024-01-03 ",
		Time:     "20\n",
		Distance: " 3.25",
	}, jogs.Jog{})
	require.NoError(t, err)

	assert.Nil(t, jog.ID)
	assert.Nil(t, jog.UserID)
	assert.Equal(t, 20, sub.Time)
	assert.Equal(t, 3.25, sub.Distance)
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), sub.Date)
}

func TestParseForm_EditKeepsIdentifiers(t *testing.T) {
	base := jogs.Jog{ID: jogs.Ptr(12), UserID: jogs.Ptr("u1")}
	jog, sub, err := jogs.ParseForm(jogs.Form{
		Date:     "Jan 10, 2024",
		Time:     "60",
		Distance: "10",
	}, base)
	require.NoError(t, err)

	assert.Equal(t, 12, *jog.ID)
	assert.Equal(t, "u1", *jog.UserID)
	assert.Equal(t, 12, sub.ID)
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), sub.Date)
}

func TestParseForm_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		form jogs.Form
	}{
		{name: "EmptyDate", form: jogs.Form{Time: "1", Distance: "1"}},
		{name: "BadDate", form: jogs.Form{Date: "02/01/2024", Time: "1", Distance: "1"}},
		{name: "EmptyTime", form: jogs.Form{Date: "2024-01-02", Distance: "1"}},
		{name: "FractionalTime", form: jogs.Form{Date: "2024-01-02", Time: "1.5", Distance: "1"}},
		{name: "EmptyDistance", form: jogs.Form{Date: "2024-01-02", Time: "1"}},
		{name: "BadDistance", form: jogs.Form{Date: "2024-01-02", Time: "1", Distance: "far"}},
		{name: "NegativeDistance", form: jogs.Form{Date: "2024-01-02", Time: "1", Distance: "-2"}},
		{name: "NaNDistance", form: jogs.Form{Date: "2024-01-02", Time: "1", Distance: "NaN"}},
		{name: "InfDistance", form: jogs.Form{Date: "2024-01-02", Time: "1", Distance: "Inf"}},
		{name: "PlusInfDistance", form: jogs.Form{Date: "2024-01-02", Time: "1", Distance: "+Inf"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := jogs.ParseForm(tc.form, jogs.Jog{})
			assert.ErrorIs(t, err, jogs.ErrInvalidJog)
		})
	}
}

func TestFormFromJog(t *testing.T) {
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	f := jogs.FormFromJog(jogs.Jog{Date: &date, Time: jogs.Ptr(30), Distance: jogs.Ptr(5.5)})
	assert.Equal(t, jogs.Form{Date: "2024-01-02", Time: "30", Distance: "5.5"}, f)

	assert.Equal(t, jogs.Form{}, jogs.FormFromJog(jogs.Jog{}))
}
