package settings

import (
	"errors"

	"github.com/andreyvit/tinyjson"

	"magpie-bc840/errcode"
	"magpie-bc840/storage"
	"magpie-bc840/x/mathx"
)

// BootConfig carries the boot-time tunables. Values arrive from a JSON
// file on flash, from the embedded per-device config, or from the
// compiled-in defaults, in that order of preference.
type BootConfig struct {
	// HeartbeatSec is the period of the status heartbeat, 1-3600.
	HeartbeatSec int
	// BlinkMs is the LED blink duration, 20-2000.
	BlinkMs int
	// SetClockOnPowerLoss allows the firmware to load a fallback time
	// into an RTC that lost power.
	SetClockOnPowerLoss bool
}

// EmbeddedConfigLookup allows overriding how embedded configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// DefaultBootConfig returns the compiled-in fallback values.
func DefaultBootConfig() BootConfig {
	return BootConfig{HeartbeatSec: 10, BlinkMs: 120, SetClockOnPowerLoss: true}
}

// ParseBootConfig decodes raw JSON, taking the keys it knows and leaving
// absent ones at their defaults. Out-of-range values are clamped rather
// than rejected: a half-broken config file should not stop the board.
func ParseBootConfig(raw []byte) (BootConfig, error) {
	cfg := DefaultBootConfig()

	r := tinyjson.Raw(raw)
	val := r.Value()
	r.EnsureEOF()

	m, ok := val.(map[string]any)
	if !ok {
		return cfg, errors.New("settings: boot config is not a JSON object")
	}
	if v, ok := m["heartbeat_sec"].(float64); ok {
		cfg.HeartbeatSec = mathx.Clamp(int(v), 1, 3600)
	}
	if v, ok := m["blink_ms"].(float64); ok {
		cfg.BlinkMs = mathx.Clamp(int(v), 20, 2000)
	}
	if v, ok := m["set_clock_on_power_loss"].(bool); ok {
		cfg.SetClockOnPowerLoss = v
	}
	return cfg, nil
}

// LoadBootConfig reads name from fs, falling back to the embedded config
// for device and then to the defaults. A missing file is the normal case
// on a fresh board and is not an error; an unreadable or unparseable one
// is, with the defaults returned alongside so boot can continue.
func LoadBootConfig(fs *storage.Filestore, name, device string) (BootConfig, error) {
	raw, err := fs.ReadFile(name)
	if err != nil {
		if errcode.Of(err) != errcode.NotFound {
			return DefaultBootConfig(), err
		}
		if b, ok := EmbeddedConfigLookup(device); ok && len(b) > 0 {
			return ParseBootConfig(b)
		}
		return DefaultBootConfig(), nil
	}
	return ParseBootConfig(raw)
}
