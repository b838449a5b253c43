// Package tcpcdriver defines the bus interface shared by USB Type-C port
// controller drivers, and helpers that wrap it.
//
// The I2C interface is derived from TinyGo and is satisfied as-is by
// periph.io's i2c.Bus, so a driver written against it runs both on a Linux
// host and on a microcontroller.
package tcpcdriver

// I2C defines a minimum interface to I2C hardware with a single Tx method.
// All port controller drivers that communicate over I2C use this interface.
type I2C interface {

	// Tx performs a write and then a read transfer placing the result in r, as
	// a single bus transaction. Tx blocks until the transaction completes or
	// fails.
	//
	// Passing a nil value for w or r skips the transfer corresponding to write
	// or read, respectively.
	//
	//  i2c.Tx(addr, nil, r)
	// Performs only a read transfer.
	//
	//  i2c.Tx(addr, w, nil)
	// Performs only a write transfer.
	Tx(addr uint16, w, r []byte) error
}

// I2CFunc is an adapter to allow the use of ordinary functions as I2C.
type I2CFunc func(addr uint16, w, r []byte) error

// Tx implements I2C interface.
func (f I2CFunc) Tx(addr uint16, w, r []byte) error {
	return f(addr, w, r)
}
