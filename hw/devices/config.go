package devices

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-faster/errors"

	"bitbang/hw/endian"
	"bitbang/hw/hwio"
	"bitbang/log"
)

type Config struct {
	// Endian overrides the build time byte order policy when set.
	Endian *endian.Mode `toml:"endian,omitempty"`

	// Unchecked disables index, bit range and value validation.
	Unchecked bool `toml:"unchecked"`

	Devices []DeviceConfig `toml:"device"`
}

type DeviceConfig struct {
	Name   string        `toml:"name"`
	Layout string        `toml:"layout,omitempty"` // known register map, see LayoutNames
	Width  uint          `toml:"width"`            // register width: 8, 16 or 32
	Path   string        `toml:"path,omitempty"`   // device to map, RAM buffer if empty
	Offset int64         `toml:"offset,omitempty"` // byte offset within the device
	Size   int           `toml:"size"`             // number of registers
	Fields []FieldConfig `toml:"field,omitempty"`
}

type FieldConfig struct {
	Name string `toml:"name"`
	Reg  uint   `toml:"reg"`
	Bits string `toml:"bits,omitempty"` // "LO:HI" or "N", whole register if empty
}

// Mode returns the byte order mode to use, the build time default unless the
// configuration overrides it.
func (cfg *Config) Mode() endian.Mode {
	if cfg.Endian != nil {
		return *cfg.Endian
	}
	return endian.Default
}

// Field converts fc into a hwio.Field.
func (fc FieldConfig) Field() (hwio.Field, error) {
	f := hwio.Field{Name: fc.Name, Reg: fc.Reg, Whole: true}
	if fc.Bits == "" {
		return f, nil
	}
	lo, hi, err := hwio.ParseBits(fc.Bits)
	if err != nil {
		return hwio.Field{}, err
	}
	f.Lo, f.Hi, f.Whole = lo, hi, false
	return f, nil
}

// Validate checks the configuration is consistent.
func (cfg *Config) Validate() error {
	if cfg.Endian != nil && *cfg.Endian > endian.ForcedLittle {
		return errors.Errorf("invalid endianness mode %d", uint8(*cfg.Endian))
	}

	names := make(map[string]bool)
	for i, dc := range cfg.Devices {
		if dc.Name == "" {
			return errors.Errorf("device #%d: missing name", i)
		}
		if names[dc.Name] {
			return errors.Errorf("device %s: duplicate name", dc.Name)
		}
		names[dc.Name] = true

		if err := dc.validate(); err != nil {
			return errors.Wrapf(err, "device %s", dc.Name)
		}
	}
	return nil
}

func (dc *DeviceConfig) validate() error {
	switch dc.Width {
	case 8, 16, 32:
	default:
		return errors.Errorf("invalid width %d (want 8, 16 or 32)", dc.Width)
	}
	if dc.Size <= 0 {
		return errors.Errorf("invalid size %d", dc.Size)
	}
	if dc.Offset < 0 {
		return errors.Errorf("invalid offset %d", dc.Offset)
	}

	names := make(map[string]bool)
	for _, fc := range dc.Fields {
		if fc.Name == "" {
			return errors.New("field without name")
		}
		if names[fc.Name] {
			return errors.Errorf("field %s: duplicate name", fc.Name)
		}
		names[fc.Name] = true

		f, err := fc.Field()
		if err != nil {
			return errors.Wrapf(err, "field %s", fc.Name)
		}
		if f.Reg >= uint(dc.Size) {
			return errors.Errorf("field %s: register %d out of range (size %d)", fc.Name, f.Reg, dc.Size)
		}
		if !f.Whole && f.Hi >= dc.Width {
			return errors.Errorf("field %s: bits %s exceed %d-bit width", fc.Name, fc.Bits, dc.Width)
		}
	}
	return nil
}

const cfgFilename = "devices.toml"

// DefaultConfigPath returns the path of the configuration file in the user
// configuration directory.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "bitbang", cfgFilename), nil
}

// LoadConfig reads and validates the configuration at path.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, errors.Wrapf(err, "load config")
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		keys := make([]string, len(undec))
		for i, k := range undec {
			keys[i] = k.String()
		}
		return Config{}, errors.Errorf("load config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.resolve(); err != nil {
		return Config{}, errors.Wrapf(err, "load config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrapf(err, "load config %s", path)
	}
	return cfg, nil
}

// DefaultConfig returns a configuration with one RAM backed device of each
// width, of 32 registers each.
func DefaultConfig() Config {
	return Config{
		Devices: []DeviceConfig{
			{Name: "device8", Width: 8, Size: 32},
			{Name: "device16", Width: 16, Size: 32},
			{Name: "device32", Width: 32, Size: 32},
		},
	}
}

// LoadConfigOrDefault loads the configuration from the bitbang config
// directory, or provides the default one.
func LoadConfigOrDefault() Config {
	path, err := DefaultConfigPath()
	if err != nil {
		return DefaultConfig()
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.ModDevices.WarnZ("using default configuration").Error("err", err).End()
		}
		return DefaultConfig()
	}
	return cfg
}

// SaveConfig writes cfg to path.
func SaveConfig(path string, cfg Config) error {
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}
