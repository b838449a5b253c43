package pdmsg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedSupplyEncode(t *testing.T) {
	o := FixedSupply(20000, 3000)
	assert.Equal(t, FixedSupplyPDO(0x0006412C), o)
}

func TestFixedSupplyDecode(t *testing.T) {
	o := FixedSupplyPDO(0x0006412C)
	assert.Equal(t, uint16(20000), o.Voltage())
	assert.Equal(t, uint16(3000), o.MaxCurrent())
	assert.Equal(t, PDOTypeFixedSupply, PDO(o).Type())
}

func TestFixedSupplyDecodeProfiles(t *testing.T) {
	tests := []struct {
		word    uint32
		voltage uint16
	}{
		{0x0001912C, 5000},
		{0x0002D12C, 9000},
		{0x0003C12C, 12000},
		{0x0004B12C, 15000},
		{0x0006412C, 20000},
	}
	for _, tt := range tests {
		o := FixedSupplyPDO(tt.word)
		assert.Equal(t, tt.voltage, o.Voltage(), "word 0x%08X", tt.word)
		assert.Equal(t, uint16(3000), o.MaxCurrent(), "word 0x%08X", tt.word)
		assert.Equal(t, o, FixedSupply(tt.voltage, 3000))
	}
}

func TestFixedSupplyRoundsDown(t *testing.T) {
	o := FixedSupply(5049, 1509)
	assert.Equal(t, uint16(5000), o.Voltage())
	assert.Equal(t, uint16(1500), o.MaxCurrent())
}

func TestSettersKeepOtherField(t *testing.T) {
	o := FixedSupply(9000, 2000)
	o.SetVoltage(15000)
	assert.Equal(t, uint16(2000), o.MaxCurrent())
	o.SetMaxCurrent(500)
	assert.Equal(t, uint16(15000), o.Voltage())
}

func TestPDOType(t *testing.T) {
	assert.Equal(t, PDOTypeBattery, PDO(0b01<<30).Type())
	assert.Equal(t, PDOTypeVariableSupply, PDO(0b10<<30).Type())
	assert.Equal(t, PDOTypePPS, PDO(0b11<<30).Type())
	assert.Equal(t, PDOTypeEPRAVS, PDO(0b1101<<28).Type())
}

func TestRequestDO(t *testing.T) {
	o := RequestDO(2<<28 | 1<<26 | 300<<10 | 300)
	assert.Equal(t, uint8(2), o.SelectedObjectPosition())
	assert.True(t, o.CapabilityMismatch())
	assert.Equal(t, uint16(3000), o.FixedOperatingCurrent())
	assert.Equal(t, uint16(3000), o.FixedMaxOperatingCurrent())
	assert.Equal(t, "no request", RequestDO(0).String())
}
