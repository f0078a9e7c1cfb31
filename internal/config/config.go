package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the panel's settings. Everything has a default; a yaml
// file and the TV_IP environment variable can override pieces of it.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`
	// ADBPath is the adb binary, resolved through PATH when relative.
	ADBPath string `yaml:"adb_path"`
	// Device is the initial target.
	Device Device `yaml:"device"`
}

// Device selects the TV the panel controls.
type Device struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

const (
	defaultListen = ":8000"
	defaultADB    = "adb"
	defaultHost   = "10.0.110.253"

	// DevicePort is the fixed adb-over-tcp port appended to the host.
	DevicePort = 5555
)

// Default returns the built-in configuration with the TV_IP environment
// override applied.
func Default() Config {
	host := defaultHost
	if v := os.Getenv("TV_IP"); v != "" {
		host = v
	}
	return Config{
		Listen:  defaultListen,
		ADBPath: defaultADB,
		Device:  Device{Host: host, Port: DevicePort},
	}
}

// Load returns the defaults overlaid with the yaml file at path. An empty
// path means defaults only.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Device.Port == 0 {
		cfg.Device.Port = DevicePort
	}
	return cfg, nil
}
