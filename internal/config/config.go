package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the dispatcher, the device agent and their clients.
type Config struct {
	// ServerAddress is the dispatcher gRPC address.
	ServerAddress string `yaml:"server_addr"`
	// DeviceAddress is the device agent gRPC address.
	DeviceAddress string `yaml:"device_addr"`
	// Timeout bounds every outgoing RPC.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is the minimum level of emitted log lines.
	LogLevel string `yaml:"log_level"`
	// Records selects the record store backing the dispatcher.
	Records Records `yaml:"records"`
	// Push selects the push transport used for fan-out.
	Push Push `yaml:"push"`
	// Alarm controls how the device agent presents an alert.
	Alarm Alarm `yaml:"alarm"`
}

// Records configures the per-user record store.
type Records struct {
	// Driver is one of RecordsDriverSQLite or RecordsDriverFile.
	Driver string `yaml:"driver"`
	// Path is the sqlite database or the YAML snapshot location.
	Path string `yaml:"path"`
}

// Push configures the push-delivery transport.
type Push struct {
	// Transport is one of PushTransportHTTP, PushTransportDirect or PushTransportLog.
	Transport string `yaml:"transport"`
	// Endpoint is the batch-send URL of the HTTP push gateway.
	Endpoint string `yaml:"endpoint"`
	// APIKey authorizes requests against the push gateway.
	APIKey string `yaml:"api_key"`
	// Timeout bounds one fan-out send.
	Timeout time.Duration `yaml:"timeout"`
}

// Alarm configures the device-side alarm presentation.
type Alarm struct {
	// Timeout is the deadline after which a running alarm stops by itself.
	Timeout time.Duration `yaml:"timeout"`
	// Sound is the audio file looped while alerting.
	Sound string `yaml:"sound"`
	// Backend is one of AlarmBackendDesktop or AlarmBackendHeadless.
	Backend string `yaml:"backend"`
	// Permissions is one of PermissionsProbe or PermissionsGranted.
	Permissions string `yaml:"permissions"`
	// HistoryFile keeps recent alert ids and the last session across restarts.
	// History is kept in memory only when empty.
	HistoryFile string `yaml:"history_file"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "critical-alert-settings.yaml"

	// DefaultRecordsFilename is the default sqlite database path.
	DefaultRecordsFilename = "critical-alert-records.db"

	// DefaultDeviceAddress is where the device agent listens unless configured.
	DefaultDeviceAddress = "127.0.0.1:50061"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultPushTimeout bounds a single fan-out send.
	DefaultPushTimeout = 10 * time.Second

	// DefaultAlarmTimeout is how long an unacknowledged alarm keeps ringing.
	DefaultAlarmTimeout = 60 * time.Second

	// DefaultFilePermissions is the default file permission for written files.
	DefaultFilePermissions = 0o600
)

// Enumerated values accepted by the settings file.
const (
	RecordsDriverSQLite = "sqlite"
	RecordsDriverFile   = "file"

	PushTransportHTTP   = "http"
	PushTransportDirect = "direct"
	PushTransportLog    = "log"

	AlarmBackendDesktop  = "desktop"
	AlarmBackendHeadless = "headless"

	PermissionsProbe   = "probe"
	PermissionsGranted = "granted"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerSocketRequired is returned when server address is missing.
	errServerSocketRequired = errors.New("server address must be provided")
	// errPushEndpointRequired is returned when the HTTP transport has no endpoint.
	errPushEndpointRequired = errors.New("push endpoint must be provided for the http transport")
	// errUnknownValue is returned for enum settings outside their allowed set.
	errUnknownValue = errors.New("unknown value")
	// errNegativeDuration is returned for durations below zero.
	errNegativeDuration = errors.New("duration must not be negative")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields, fills defaults and rejects unknown enum values.
//
//nolint:cyclop // One flat pass over every section reads better than several helpers.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.ServerAddress == "" {
		return errServerSocketRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.ServerAddress); err != nil {
		return fmt.Errorf("invalid server socket: %w", err)
	}

	if settings.DeviceAddress == "" {
		settings.DeviceAddress = DefaultDeviceAddress
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.DeviceAddress); err != nil {
		return fmt.Errorf("invalid device socket: %w", err)
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.LogLevel == "" {
		settings.LogLevel = "info"
	}

	if err := validateRecords(&settings.Records); err != nil {
		return err
	}

	if err := validatePush(&settings.Push); err != nil {
		return err
	}

	return validateAlarm(&settings.Alarm)
}

func validateRecords(records *Records) error {
	if records.Driver == "" {
		records.Driver = RecordsDriverSQLite
	}

	switch records.Driver {
	case RecordsDriverSQLite:
		if records.Path == "" {
			records.Path = DefaultRecordsFilename
		}
	case RecordsDriverFile:
		if records.Path == "" {
			return fmt.Errorf("records path must be provided for the %s driver", RecordsDriverFile)
		}
	default:
		return fmt.Errorf("records driver %q: %w", records.Driver, errUnknownValue)
	}

	return nil
}

func validatePush(push *Push) error {
	if push.Transport == "" {
		push.Transport = PushTransportLog
	}

	if push.Timeout < 0 {
		return fmt.Errorf("push timeout: %w", errNegativeDuration)
	}

	if push.Timeout == 0 {
		push.Timeout = DefaultPushTimeout
	}

	switch push.Transport {
	case PushTransportHTTP:
		if push.Endpoint == "" {
			return errPushEndpointRequired
		}

		if _, err := url.ParseRequestURI(push.Endpoint); err != nil {
			return fmt.Errorf("invalid push endpoint: %w", err)
		}
	case PushTransportDirect, PushTransportLog:
	default:
		return fmt.Errorf("push transport %q: %w", push.Transport, errUnknownValue)
	}

	return nil
}

func validateAlarm(alarm *Alarm) error {
	if alarm.Timeout < 0 {
		return fmt.Errorf("alarm timeout: %w", errNegativeDuration)
	}

	if alarm.Timeout == 0 {
		alarm.Timeout = DefaultAlarmTimeout
	}

	if alarm.Backend == "" {
		alarm.Backend = AlarmBackendHeadless
	}

	if alarm.Backend != AlarmBackendDesktop && alarm.Backend != AlarmBackendHeadless {
		return fmt.Errorf("alarm backend %q: %w", alarm.Backend, errUnknownValue)
	}

	if alarm.Permissions == "" {
		alarm.Permissions = PermissionsProbe
	}

	if alarm.Permissions != PermissionsProbe && alarm.Permissions != PermissionsGranted {
		return fmt.Errorf("alarm permissions %q: %w", alarm.Permissions, errUnknownValue)
	}

	return nil
}
