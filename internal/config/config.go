package config

import (
	"os"
	"strings"
	"time"

	"github.com/juju/errors"
	"github.com/spf13/viper"
)

// Config is the command line tool's configuration
type Config struct {
	Cameras        []Camera      `mapstructure:"cameras"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	ConfigureDelay time.Duration `mapstructure:"configure_delay"`
	LogLevel       string        `mapstructure:"log_level"`
	Listen         string        `mapstructure:"listen"`
	MQTT           MQTT          `mapstructure:"mqtt"`
}

// Camera names one camera of the rig. URL overrides the address derived
// from the serial number.
type Camera struct {
	Name   string `mapstructure:"name"`
	Serial string `mapstructure:"serial"`
	URL    string `mapstructure:"url"`
}

// MQTT configures status publishing
type MQTT struct {
	Broker   string `mapstructure:"broker"`
	Topic    string `mapstructure:"topic"`
	ClientID string `mapstructure:"client_id"`
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("request_timeout", 0)
	v.SetDefault("poll_interval", time.Second)
	v.SetDefault("configure_delay", 2*time.Second)
	v.SetDefault("log_level", "info")
	v.SetDefault("listen", ":9100")
	v.SetDefault("mqtt.topic", "gopro")
	v.SetDefault("mqtt.client_id", "goprousb")
}

// Init reads cfgFile, or $HOME/.goprousb.yaml when empty, plus GOPROUSB_*
// environment variables. A missing config file is not an error.
func Init(v *viper.Viper, cfgFile string) error {
	SetDefaults(v)

	if cfgFile != "" {
		// Use config file from the flag.
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.Annotate(err, "failed to find home directory")
		}
		v.AddConfigPath(home)
		v.SetConfigType("yaml")
		v.SetConfigName(".goprousb")
	}

	v.SetEnvPrefix("goprousb")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			return nil
		}
		return errors.Annotate(err, "failed to read config")
	}
	return nil
}

// Load decodes the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Annotate(err, "failed to decode config")
	}
	return &cfg, nil
}

// Validate checks the camera list is usable for rig commands
func (c *Config) Validate() error {
	if len(c.Cameras) == 0 {
		return errors.NotValidf("config without cameras")
	}

	names := make(map[string]bool, len(c.Cameras))
	for i, cam := range c.Cameras {
		if cam.Name == "" {
			return errors.NotValidf("camera %d without name", i+1)
		}
		if len(cam.Serial) < 3 {
			return errors.NotValidf("camera %q serial %q", cam.Name, cam.Serial)
		}
		if names[cam.Name] {
			return errors.NotValidf("duplicate camera name %q", cam.Name)
		}
		names[cam.Name] = true
	}

	if c.RequestTimeout < 0 {
		return errors.NotValidf("negative request timeout")
	}
	return nil
}

// Select returns the cameras with the given names, or all when names is empty
func (c *Config) Select(names []string) ([]Camera, error) {
	if len(names) == 0 {
		return c.Cameras, nil
	}

	var selected []Camera
	for _, name := range names {
		found := false
		for _, cam := range c.Cameras {
			if cam.Name == name {
				selected = append(selected, cam)
				found = true
				break
			}
		}
		if !found {
			return nil, errors.NotFoundf("camera %q", name)
		}
	}
	return selected, nil
}
