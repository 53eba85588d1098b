package platform

// Plan lists pins and rates for one board layout.
type Plan struct {
	I2C  I2CPlan
	UART UARTPlan
}

type I2CPlan struct {
	SDA int    // GPIO number
	SCL int    // GPIO number
	Hz  uint32 // bus frequency
}

type UARTPlan struct {
	TX   int // GPIO number
	RX   int // GPIO number
	Baud uint32
}

// PicoW is the default wiring: sensor on i2c0 at GP4/GP5, frames out of
// uart0 at GP0/GP1.
var PicoW = Plan{
	I2C:  I2CPlan{SDA: 4, SCL: 5, Hz: 100_000},
	UART: UARTPlan{TX: 0, RX: 1, Baud: 9600},
}
