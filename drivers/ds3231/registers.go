// Package ds3231 provides constants for the register map of the DS3231
// real-time clock.
package ds3231

const (
	// 7-bit I2C address (fixed).
	Address = 0x68

	// --- Timekeeping registers (BCD) ---
	regSeconds = 0x00
	regMinutes = 0x01
	regHours   = 0x02 // 24-hour mode assumed
	regWeekday = 0x03 // 1..7
	regDay     = 0x04
	regMonth   = 0x05 // bit 7 is the century flag
	regYear    = 0x06 // 00..99

	// --- Control / status ---
	regControl = 0x0E
	regStatus  = 0x0F
	regTempMSB = 0x11 // 10-bit two's complement, 0.25 °C per LSB
	regTempLSB = 0x12

	// Control bits
	ctrlEOSC  = 1 << 7 // oscillator disabled on battery when set
	ctrlINTCN = 1 << 2

	// Status bits
	statusOSF = 1 << 7 // oscillator stop flag

	// Masks applied when reading the time registers.
	maskSeconds = 0x7F
	maskMinutes = 0x7F
	maskHours   = 0x3F
	maskWeekday = 0x07
	maskDay     = 0x3F
	maskMonth   = 0x1F
)
