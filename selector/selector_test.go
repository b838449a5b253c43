package selector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oxplot/go-pdtrigger"
	"github.com/oxplot/go-pdtrigger/pdmsg"
	"github.com/oxplot/go-pdtrigger/profile"
)

type mockChanger struct{ mock.Mock }

func (m *mockChanger) ChangePDO(baseline, target pdmsg.FixedSupplyPDO) error {
	return m.Called(baseline, target).Error(0)
}

// scriptButton returns the scripted samples in order and repeats the last one
// forever.
type scriptButton struct {
	samples []bool
	errs    map[int]error
	n       int
}

func (b *scriptButton) Pressed() (bool, error) {
	i := b.n
	b.n++
	if err := b.errs[i]; err != nil {
		return true, err
	}
	if i >= len(b.samples) {
		i = len(b.samples) - 1
	}
	return b.samples[i], nil
}

type led struct {
	on   bool
	sets int
}

func (l *led) Set(on bool) error {
	l.on = on
	l.sets++
	return nil
}

func newLEDs(n int) ([]*led, []pdtrigger.Indicator) {
	leds := make([]*led, n)
	inds := make([]pdtrigger.Indicator, n)
	for i := range leds {
		leds[i] = &led{}
		inds[i] = leds[i]
	}
	return leds, inds
}

func litCount(leds []*led) (count, at int) {
	at = -1
	for i, l := range leds {
		if l.on {
			count++
			at = i
		}
	}
	return count, at
}

func newMachine(t *testing.T, ch Changer, b pdtrigger.Button, levels []pdtrigger.Indicator) (*Machine, *int) {
	t.Helper()
	m, err := New(ch, Config{Table: profile.Default(), Button: b, Levels: levels})
	require.NoError(t, err)
	var sleeps int
	m.sleep = func(ctx context.Context, d time.Duration) error {
		assert.Equal(t, DefaultReleasePoll, d)
		sleeps++
		return ctx.Err()
	}
	return m, &sleeps
}

func TestInitialState(t *testing.T) {
	leds, inds := newLEDs(5)
	m, _ := newMachine(t, &mockChanger{}, &scriptButton{samples: []bool{false}}, inds)
	assert.Equal(t, 0, m.Index())
	assert.Equal(t, -1, m.Lit())
	assert.Equal(t, StateIdle, m.State())
	for _, l := range leds {
		assert.Zero(t, l.sets)
	}
}

func TestNoPressNoChange(t *testing.T) {
	ch := &mockChanger{}
	m, _ := newMachine(t, ch, &scriptButton{samples: []bool{false}}, nil)
	for i := 0; i < 3; i++ {
		o, err := m.Step(context.Background())
		require.NoError(t, err)
		assert.False(t, o.Pressed)
		assert.False(t, o.Attempted)
		assert.Equal(t, 0, o.Index)
		assert.Equal(t, -1, o.Lit)
	}
	ch.AssertNotCalled(t, "ChangePDO", mock.Anything, mock.Anything)
}

func TestFullCycle(t *testing.T) {
	tbl := profile.Default()
	ch := &mockChanger{}
	ch.On("ChangePDO", mock.Anything, mock.Anything).Return(nil)

	leds, inds := newLEDs(len(tbl))
	// Each Step sees a press, then one held sample, then release.
	b := &scriptButton{}
	m, _ := newMachine(t, ch, b, inds)

	want := []int{1, 2, 3, 4, 0}
	for _, idx := range want {
		b.samples, b.n = []bool{true, true, false}, 0
		o, err := m.Step(context.Background())
		require.NoError(t, err)
		assert.True(t, o.Attempted)
		assert.NoError(t, o.Err)
		assert.Equal(t, idx, o.Index)
		assert.Equal(t, tbl[idx], o.Profile)
		assert.Equal(t, StateIdle, m.State())

		count, at := litCount(leds)
		assert.Equal(t, 1, count)
		assert.Equal(t, idx, at)
		assert.Equal(t, idx, m.Lit())
		assert.Equal(t, idx, o.Lit)
	}

	for _, idx := range want {
		ch.AssertCalled(t, "ChangePDO", pdmsg.FixedSupplyPDO(0x0001912C), tbl[idx].PDO())
	}
	ch.AssertNumberOfCalls(t, "ChangePDO", len(want))
}

func TestChangeFailureKeepsSelection(t *testing.T) {
	tbl := profile.Default()
	ch := &mockChanger{}
	ch.On("ChangePDO", tbl[0].PDO(), tbl[1].PDO()).Return(nil).Once()
	errBus := errors.New("bus")
	ch.On("ChangePDO", tbl[0].PDO(), tbl[2].PDO()).Return(errBus).Once()

	leds, inds := newLEDs(len(tbl))
	b := &scriptButton{samples: []bool{true, false}}
	m, _ := newMachine(t, ch, b, inds)

	_, err := m.Step(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, m.Index())
	sets := leds[1].sets

	b.samples, b.n = []bool{true, false}, 0
	o, err := m.Step(context.Background())
	require.NoError(t, err)
	assert.True(t, o.Attempted)
	assert.ErrorIs(t, o.Err, errBus)
	assert.Equal(t, 1, o.Index)
	assert.Equal(t, 1, m.Index())
	assert.Equal(t, 1, m.Lit())
	assert.Equal(t, sets, leds[1].sets)
	_, at := litCount(leds)
	assert.Equal(t, 1, at)
	assert.Equal(t, StateIdle, m.State())
	ch.AssertExpectations(t)
}

func TestHeldButtonFiresOnce(t *testing.T) {
	ch := &mockChanger{}
	ch.On("ChangePDO", mock.Anything, mock.Anything).Return(nil)

	samples := []bool{true}
	for i := 0; i < 50; i++ {
		samples = append(samples, true)
	}
	samples = append(samples, false)
	m, sleeps := newMachine(t, ch, &scriptButton{samples: samples}, nil)

	o, err := m.Step(context.Background())
	require.NoError(t, err)
	assert.True(t, o.Attempted)
	assert.Equal(t, 50, *sleeps)
	ch.AssertNumberOfCalls(t, "ChangePDO", 1)
}

func TestHeldErrorsCountAsHeld(t *testing.T) {
	ch := &mockChanger{}
	ch.On("ChangePDO", mock.Anything, mock.Anything).Return(nil)
	b := &scriptButton{
		samples: []bool{true, false, false, false},
		errs:    map[int]error{1: errors.New("glitch"), 2: errors.New("glitch")},
	}
	m, sleeps := newMachine(t, ch, b, nil)

	_, err := m.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, *sleeps)
	assert.Equal(t, StateIdle, m.State())
}

func TestIdleButtonError(t *testing.T) {
	ch := &mockChanger{}
	errPin := errors.New("pin")
	m, _ := newMachine(t, ch, &scriptButton{samples: []bool{false}, errs: map[int]error{0: errPin}}, nil)

	o, err := m.Step(context.Background())
	assert.ErrorIs(t, err, errPin)
	assert.False(t, o.Pressed)
	assert.Equal(t, StateIdle, m.State())
	ch.AssertNotCalled(t, "ChangePDO", mock.Anything, mock.Anything)
}

func TestCancelDuringWaitResumes(t *testing.T) {
	ch := &mockChanger{}
	ch.On("ChangePDO", mock.Anything, mock.Anything).Return(nil)
	b := &scriptButton{samples: []bool{true}}
	m, _ := newMachine(t, ch, b, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o, err := m.Step(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, o.Attempted)
	assert.Equal(t, 1, o.Index)
	assert.Equal(t, StateHeldWaitRelease, m.State())

	// Released now: the next step finishes the wait without a new change.
	b.samples, b.n = []bool{false}, 0
	o, err = m.Step(context.Background())
	require.NoError(t, err)
	assert.False(t, o.Attempted)
	assert.Equal(t, StateIdle, m.State())
	ch.AssertNumberOfCalls(t, "ChangePDO", 1)
}

func TestDisarmNeedsRelease(t *testing.T) {
	ch := &mockChanger{}
	ch.On("ChangePDO", mock.Anything, mock.Anything).Return(nil)
	leds, inds := newLEDs(5)
	b := &scriptButton{samples: []bool{true, true, false, true, false}}
	m, _ := newMachine(t, ch, b, inds)

	m.Disarm()
	assert.True(t, m.Disarmed())

	// Held through two steps: nothing happens.
	for i := 0; i < 2; i++ {
		o, err := m.Step(context.Background())
		require.NoError(t, err)
		assert.False(t, o.Pressed)
		assert.False(t, o.Attempted)
		assert.Equal(t, 0, o.Index)
		assert.Equal(t, -1, o.Lit)
	}
	assert.True(t, m.Disarmed())

	// Released sample arms the machine without acting.
	o, err := m.Step(context.Background())
	require.NoError(t, err)
	assert.False(t, o.Pressed)
	assert.False(t, m.Disarmed())

	// A fresh press is honored.
	o, err = m.Step(context.Background())
	require.NoError(t, err)
	assert.True(t, o.Attempted)
	assert.Equal(t, 1, o.Index)
	n, at := litCount(leds)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, at)
	ch.AssertNumberOfCalls(t, "ChangePDO", 1)
}

func TestDisarmAbandonsReleaseWait(t *testing.T) {
	ch := &mockChanger{}
	ch.On("ChangePDO", mock.Anything, mock.Anything).Return(nil)
	b := &scriptButton{samples: []bool{true}}
	m, _ := newMachine(t, ch, b, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Step(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateHeldWaitRelease, m.State())

	m.Disarm()
	assert.Equal(t, StateIdle, m.State())

	o, err := m.Step(context.Background())
	require.NoError(t, err)
	assert.False(t, o.Attempted)
	assert.True(t, m.Disarmed())
	ch.AssertNumberOfCalls(t, "ChangePDO", 1)
}

func TestIndicatorErrorStillAdvances(t *testing.T) {
	ch := &mockChanger{}
	ch.On("ChangePDO", mock.Anything, mock.Anything).Return(nil)
	errLED := errors.New("led")
	_, inds := newLEDs(5)
	inds[1] = pdtrigger.IndicatorFunc(func(bool) error { return errLED })

	m, _ := newMachine(t, ch, &scriptButton{samples: []bool{true, false}}, inds)
	o, err := m.Step(context.Background())
	assert.ErrorIs(t, err, errLED)
	assert.Equal(t, 1, o.Index)
	assert.Equal(t, StateIdle, m.State())
}

func TestNewValidates(t *testing.T) {
	b := &scriptButton{samples: []bool{false}}
	_, err := New(&mockChanger{}, Config{Table: profile.Table{}, Button: b})
	assert.Error(t, err)
	_, err = New(&mockChanger{}, Config{Table: profile.Default()})
	assert.ErrorIs(t, err, errNoButton)
	_, inds := newLEDs(3)
	_, err = New(&mockChanger{}, Config{Table: profile.Default(), Button: b, Levels: inds})
	assert.ErrorIs(t, err, errLevelCount)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "held-wait-release", StateHeldWaitRelease.String())
	assert.Equal(t, "invalid", State(9).String())
}
