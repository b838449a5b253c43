package tcpcdriver

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrTimeout is returned when a transaction did not complete within the
	// deadline given to WithDeadline.
	ErrTimeout = errors.New("tcpcdriver: bus transaction timed out")

	// ErrBusBusy is returned while a timed out transaction is still holding the
	// bus.
	ErrBusBusy = errors.New("tcpcdriver: bus busy with an abandoned transaction")
)

// deadlineBus bounds the time a caller waits on each transaction.
type deadlineBus struct {
	bus I2C
	d   time.Duration
	mu  sync.Mutex // held for as long as the underlying Tx runs
}

// WithDeadline wraps bus so that no Tx call blocks the caller for longer than
// d. The underlying transaction cannot be aborted: when it overruns, the caller
// gets ErrTimeout and the transaction keeps running in the background. Until it
// returns, every new Tx fails immediately with ErrBusBusy rather than queueing
// behind it.
//
// Write and read buffers are copied, so a transaction completing after its
// deadline never touches memory owned by the caller.
//
// If d <= 0, bus is returned unchanged.
func WithDeadline(bus I2C, d time.Duration) I2C {
	if d <= 0 {
		return bus
	}
	return &deadlineBus{bus: bus, d: d}
}

func (b *deadlineBus) Tx(addr uint16, w, r []byte) error {
	if !b.mu.TryLock() {
		return ErrBusBusy
	}

	var wc, rc []byte
	if w != nil {
		wc = append([]byte(nil), w...)
	}
	if r != nil {
		rc = make([]byte, len(r))
	}

	done := make(chan error, 1)
	go func() {
		// Release the bus before reporting, so the caller's next Tx never
		// finds it still held.
		err := b.bus.Tx(addr, wc, rc)
		b.mu.Unlock()
		done <- err
	}()

	t := time.NewTimer(b.d)
	defer t.Stop()

	select {
	case err := <-done:
		if err == nil {
			copy(r, rc)
		}
		return err
	case <-t.C:
		return ErrTimeout
	}
}
