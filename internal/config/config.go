package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Pins struct {
	Anodes    [6]string `yaml:"anodes"`
	Red       string    `yaml:"red"`
	Green     string    `yaml:"green"`
	Blue      string    `yaml:"blue"`
	BoostSink string    `yaml:"boost_sink"`
}

type Monitor struct {
	Addr string `yaml:"addr"` // e.g. :8080; empty disables the monitor
}

type Mirror struct {
	Enabled bool   `yaml:"enabled"`
	SPIDev  string `yaml:"spi_dev"` // e.g. /dev/spidev0.0
}

type Config struct {
	Port    string  `yaml:"port"`     // "periph" | "sim"
	Policy  string  `yaml:"policy"`   // "rest" | "pipelined"
	CycleUs int     `yaml:"cycle_us"` // PWM cycle period in microseconds
	Pins    Pins    `yaml:"pins,omitempty"`
	Monitor Monitor `yaml:"monitor,omitempty"`
	Mirror  Mirror  `yaml:"mirror,omitempty"`
}

// Default is the sim profile with the reference cycle period.
func Default() *Config {
	return &Config{
		Port:    "sim",
		Policy:  "rest",
		CycleUs: 2000,
		Monitor: Monitor{Addr: ":8080"},
	}
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
