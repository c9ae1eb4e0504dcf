package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"tomgalvin.uk/thermalprint/internal/printer"
	"tomgalvin.uk/thermalprint/internal/transport"
)

type Config struct {
	Printer   PrinterConfig
	Transport TransportConfig
	App       AppConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Journal   JournalConfig
}

type PrinterConfig struct {
	BaudRate     int
	Firmware     uint16
	Width        int
	Height       int
	DotPrintTime time.Duration
	DotFeedTime  time.Duration
	HeatDots     byte
	HeatTime     byte
	HeatInterval byte
	ChunkSize    int
	// How often the host loop drains a chunk of queued raster data
	Tick time.Duration
}

type TransportConfig struct {
	Kind        transport.Kind
	Port        string
	USBVendor   string
	USBProduct  string
	ReadySignal string
	BLEName     string
	BLEAddress  string
}

type AppConfig struct {
	Port  string
	Debug bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type JournalConfig struct {
	// Empty disables the journal
	Path string
	// Jobs older than this are deleted at start up; zero keeps them all
	Retention time.Duration
}

func setDefaults(v *viper.Viper) {
	d := printer.DefaultConfig()
	v.SetDefault("PRINTER_BAUD", d.BaudRate)
	v.SetDefault("PRINTER_FIRMWARE", d.Firmware)
	v.SetDefault("PRINTER_WIDTH", d.Width)
	v.SetDefault("PRINTER_HEIGHT", 0)
	v.SetDefault("PRINTER_DOT_PRINT_US", d.DotPrintTime.Microseconds())
	v.SetDefault("PRINTER_DOT_FEED_US", d.DotFeedTime.Microseconds())
	v.SetDefault("PRINTER_HEAT_DOTS", d.HeatDots)
	v.SetDefault("PRINTER_HEAT_TIME", d.HeatTime)
	v.SetDefault("PRINTER_HEAT_INTERVAL", d.HeatInterval)
	v.SetDefault("PRINTER_CHUNK_SIZE", d.ChunkSize)
	v.SetDefault("PRINTER_TICK_MS", 10)
	v.SetDefault("TRANSPORT_TYPE", string(transport.Serial))
	v.SetDefault("TRANSPORT_PORT", "")
	v.SetDefault("TRANSPORT_USB_VID", "")
	v.SetDefault("TRANSPORT_USB_PID", "")
	v.SetDefault("TRANSPORT_READY_SIGNAL", "none")
	v.SetDefault("TRANSPORT_BLE_NAME", "")
	v.SetDefault("TRANSPORT_BLE_ADDRESS", "")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_DEBUG", false)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 2)
	v.SetDefault("RATE_LIMIT_BURST", 5)
	v.SetDefault("JOURNAL_PATH", "thermalprint.db")
	v.SetDefault("JOURNAL_RETENTION_DAYS", 30)
}

// Load reads settings from the environment, overlaid on an optional config
// file (.env when path is empty). A missing file isn't an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigFile(".env")
	} else {
		v.SetConfigFile(path)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !(errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)) {
			return nil, fmt.Errorf("Couldn't read config file:\n%w", err)
		}
		slog.Debug("No config file, using environment variables", "error", err)
	}

	kind, err := transport.ParseKind(v.GetString("TRANSPORT_TYPE"))
	if err != nil {
		return nil, err
	}
	readySignal := v.GetString("TRANSPORT_READY_SIGNAL")
	switch readySignal {
	case "none":
		readySignal = ""
	case "", "cts", "dsr":
	default:
		return nil, fmt.Errorf("%w: %q", transport.ErrUnknownReadyLine, readySignal)
	}

	return &Config{
		Printer: PrinterConfig{
			BaudRate:     v.GetInt("PRINTER_BAUD"),
			Firmware:     v.GetUint16("PRINTER_FIRMWARE"),
			Width:        v.GetInt("PRINTER_WIDTH"),
			Height:       v.GetInt("PRINTER_HEIGHT"),
			DotPrintTime: time.Duration(v.GetInt64("PRINTER_DOT_PRINT_US")) * time.Microsecond,
			DotFeedTime:  time.Duration(v.GetInt64("PRINTER_DOT_FEED_US")) * time.Microsecond,
			HeatDots:     byte(v.GetUint("PRINTER_HEAT_DOTS")),
			HeatTime:     byte(v.GetUint("PRINTER_HEAT_TIME")),
			HeatInterval: byte(v.GetUint("PRINTER_HEAT_INTERVAL")),
			ChunkSize:    v.GetInt("PRINTER_CHUNK_SIZE"),
			Tick:         time.Duration(v.GetInt("PRINTER_TICK_MS")) * time.Millisecond,
		},
		Transport: TransportConfig{
			Kind:        kind,
			Port:        v.GetString("TRANSPORT_PORT"),
			USBVendor:   v.GetString("TRANSPORT_USB_VID"),
			USBProduct:  v.GetString("TRANSPORT_USB_PID"),
			ReadySignal: readySignal,
			BLEName:     v.GetString("TRANSPORT_BLE_NAME"),
			BLEAddress:  v.GetString("TRANSPORT_BLE_ADDRESS"),
		},
		App: AppConfig{
			Port:  v.GetString("APP_PORT"),
			Debug: v.GetBool("APP_DEBUG"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		RateLimit: RateLimitConfig{
			RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			Burst: v.GetInt("RATE_LIMIT_BURST"),
		},
		Journal: JournalConfig{
			Path:      v.GetString("JOURNAL_PATH"),
			Retention: time.Duration(v.GetInt("JOURNAL_RETENTION_DAYS")) * 24 * time.Hour,
		},
	}, nil
}

// splitList reads a comma separated setting, ignoring blanks.
func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// Driver converts the settings to the printer driver's config.
func (c PrinterConfig) Driver() printer.Config {
	return printer.Config{
		BaudRate:     c.BaudRate,
		Firmware:     c.Firmware,
		Width:        c.Width,
		Height:       c.Height,
		DotPrintTime: c.DotPrintTime,
		DotFeedTime:  c.DotFeedTime,
		HeatDots:     c.HeatDots,
		HeatTime:     c.HeatTime,
		HeatInterval: c.HeatInterval,
		ChunkSize:    c.ChunkSize,
	}
}

// Link converts the settings to a transport config.
func (c *Config) Link() transport.Config {
	return transport.Config{
		Kind:             c.Transport.Kind,
		Port:             c.Transport.Port,
		USBVendor:        c.Transport.USBVendor,
		USBProduct:       c.Transport.USBProduct,
		BaudRate:         c.Printer.BaudRate,
		ReadyLine:        c.Transport.ReadySignal,
		BluetoothName:    c.Transport.BLEName,
		BluetoothAddress: c.Transport.BLEAddress,
	}
}
