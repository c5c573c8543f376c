package settings

// -----------------------------------------------------------------------------
// Embedded configuration
//
// One raw JSON blob per device ID. These live in flash, not RAM, and are
// the source LoadBootConfig falls back to when config.json is absent.
// -----------------------------------------------------------------------------

const cfgBC840 = `{
  "heartbeat_sec": 10,
  "blink_ms": 120,
  "set_clock_on_power_loss": true
}`

var embeddedConfigs = map[string][]byte{
	"bc840": []byte(cfgBC840),
}
