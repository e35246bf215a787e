package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/seantiz/spotipi/internal/display/hd44780"
)

const (
	envPrefix = "SPOTIPI"

	defaultListenAddr    = ":8080"
	defaultDisplayDriver = "hd44780"
	defaultLCDColumns    = 16
	defaultLCDRows       = 2
	defaultDebounce      = 200 * time.Millisecond
	defaultCallTimeout   = 5 * time.Second
)

// Configuration keys. Environment variables are SPOTIPI_ followed by the key
// upper-cased with dots replaced by underscores.
const (
	keyListenAddr     = "listen_addr"
	keyLogLevel       = "log_level"
	keyDisplayDriver  = "display.driver"
	keyLCDColumns     = "lcd.columns"
	keyLCDRows        = "lcd.rows"
	keyLCDPinRS       = "lcd.pin_rs"
	keyLCDPinE        = "lcd.pin_e"
	keyLCDPinD4       = "lcd.pin_d4"
	keyLCDPinD5       = "lcd.pin_d5"
	keyLCDPinD6       = "lcd.pin_d6"
	keyLCDPinD7       = "lcd.pin_d7"
	keyButtonNext     = "buttons.next"
	keyButtonPrevious = "buttons.previous"
	keyButtonPlay     = "buttons.play_pause"
	keyDebounce       = "buttons.debounce"
	keyBluezPlayer    = "bluez.player"
	keyCallTimeout    = "bluez.call_timeout"
)

// LCDPins names the GPIO lines wired to a 4-bit HD44780 panel.
type LCDPins struct {
	RS string
	E  string
	D4 string
	D5 string
	D6 string
	D7 string
}

// Buttons names the GPIO lines of the playback buttons. An empty name
// disables that button.
type Buttons struct {
	Next      string
	Previous  string
	PlayPause string
	Debounce  time.Duration
}

// Config holds application configuration.
type Config struct {
	ListenAddr    string
	LogLevel      slog.Level
	DisplayDriver string
	LCDColumns    int
	LCDRows       int
	LCDPins       LCDPins
	Buttons       Buttons

	// PlayerPath pins the bridge to one org.bluez.MediaPlayer1 object.
	// When empty the first player found is used.
	PlayerPath  string
	CallTimeout time.Duration
}

// Load reads configuration from defaults, the optional YAML file at path and
// SPOTIPI_* environment variables, in increasing order of precedence.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.AllowEmptyEnv(true)
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := Config{
		ListenAddr:    v.GetString(keyListenAddr),
		LogLevel:      parseLogLevel(v.GetString(keyLogLevel)),
		DisplayDriver: strings.ToLower(v.GetString(keyDisplayDriver)),
		LCDColumns:    v.GetInt(keyLCDColumns),
		LCDRows:       v.GetInt(keyLCDRows),
		LCDPins: LCDPins{
			RS: v.GetString(keyLCDPinRS),
			E:  v.GetString(keyLCDPinE),
			D4: v.GetString(keyLCDPinD4),
			D5: v.GetString(keyLCDPinD5),
			D6: v.GetString(keyLCDPinD6),
			D7: v.GetString(keyLCDPinD7),
		},
		Buttons: Buttons{
			Next:      v.GetString(keyButtonNext),
			Previous:  v.GetString(keyButtonPrevious),
			PlayPause: v.GetString(keyButtonPlay),
			Debounce:  v.GetDuration(keyDebounce),
		},
		PlayerPath:  v.GetString(keyBluezPlayer),
		CallTimeout: v.GetDuration(keyCallTimeout),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyListenAddr, defaultListenAddr)
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyDisplayDriver, defaultDisplayDriver)
	v.SetDefault(keyLCDColumns, defaultLCDColumns)
	v.SetDefault(keyLCDRows, defaultLCDRows)

	// BCM numbering of the reference wiring.
	v.SetDefault(keyLCDPinRS, "GPIO26")
	v.SetDefault(keyLCDPinE, "GPIO19")
	v.SetDefault(keyLCDPinD4, "GPIO13")
	v.SetDefault(keyLCDPinD5, "GPIO6")
	v.SetDefault(keyLCDPinD6, "GPIO5")
	v.SetDefault(keyLCDPinD7, "GPIO11")

	v.SetDefault(keyButtonNext, "GPIO27")
	v.SetDefault(keyButtonPrevious, "GPIO22")
	v.SetDefault(keyButtonPlay, "GPIO17")
	v.SetDefault(keyDebounce, defaultDebounce)

	v.SetDefault(keyBluezPlayer, "")
	v.SetDefault(keyCallTimeout, defaultCallTimeout)
}

func (c Config) validate() error {
	if err := hd44780.CheckGeometry(c.LCDColumns, c.LCDRows); err != nil {
		return fmt.Errorf("invalid lcd geometry: %w", err)
	}
	if c.Buttons.Debounce < 0 {
		return fmt.Errorf("negative button debounce %s", c.Buttons.Debounce)
	}
	if c.CallTimeout <= 0 {
		return fmt.Errorf("bluez call timeout must be positive, got %s", c.CallTimeout)
	}
	return nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a structured JSON logger writing to w at the configured level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
