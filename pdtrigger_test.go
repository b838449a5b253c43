package pdtrigger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventPopPriority(t *testing.T) {
	var e Event
	e.Add(EventContractConfirmed | EventOnline)
	e.Add(EventTransportError)

	assert.True(t, e.Has(EventOnline))
	assert.Equal(t, EventTransportError, e.Pop())
	assert.Equal(t, EventOnline, e.Pop())
	assert.Equal(t, EventContractConfirmed, e.Pop())
	assert.Equal(t, EventNone, e.Pop())
	assert.False(t, e.Has(EventOnline))
}

func TestEventNames(t *testing.T) {
	e := EventPDORequested | EventPressed
	assert.Equal(t, []string{"Pressed", "PDORequested"}, e.Names())
	// Names works on a copy.
	assert.True(t, e.Has(EventPressed))
	assert.Nil(t, EventNone.Names())
	assert.Equal(t, "INVALID", (EventOnline | EventOffline).String())
}

func TestAdapters(t *testing.T) {
	var b Button = ButtonFunc(func() (bool, error) { return true, nil })
	pressed, err := b.Pressed()
	assert.NoError(t, err)
	assert.True(t, pressed)

	var got []bool
	var i Indicator = IndicatorFunc(func(on bool) error {
		got = append(got, on)
		if !on {
			return errors.New("stuck")
		}
		return nil
	})
	assert.NoError(t, i.Set(true))
	assert.Error(t, i.Set(false))
	assert.Equal(t, []bool{true, false}, got)
}
