package config

import (
	"fmt"
	"io/ioutil"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Panel         PanelConfig         `yaml:"panel"`
	Listen        ListenConfig        `yaml:"listen"`
	MQTT          MQTTConfig          `yaml:"mqtt"`
	HomeAssistant HomeAssistantConfig `yaml:"homeassistant"`
	Zones         []ZoneConfig        `yaml:"zones"`
	Areas         []AreaConfig        `yaml:"areas"`
	Log           string              `yaml:"log"`
	Cache         bool                `yaml:"cache"`
}

type PanelConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Account     int    `yaml:"account"`
	RemoteKey   string `yaml:"remote_key"`
	Timeout     int    `yaml:"timeout"` // per-command timeout, seconds
	RateLimitMS int    `yaml:"rate_limit_ms"`
	MaxPages    int    `yaml:"max_pages"`
	Keepalive   int    `yaml:"keepalive"` // keepalive interval, seconds
}

type ListenConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

type MQTTConfig struct {
	ClientID           string `yaml:"client_id"`
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	Keepalive          int    `yaml:"keepalive"`
	Password           string `yaml:"password"`
	QOS                int    `yaml:"qos"`
	Retain             bool   `yaml:"retain"`
	RetainLog          bool   `yaml:"retain_log"`
	Username           string `yaml:"username"`
	CA                 string `yaml:"ca"`
	Cert               string `yaml:"cert"`
	Key                string `yaml:"key"`
	RejectUnauthorized bool   `yaml:"reject_unauthorized"`
	Prefix             string `yaml:"prefix"`
	Clean              bool   `yaml:"clean"`
}

type HomeAssistantConfig struct {
	Discovery bool   `yaml:"discovery"`
	Prefix    string `yaml:"prefix"`
}

type ZoneConfig struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	DeviceClass string `yaml:"device_class"`
}

type AreaConfig struct {
	ID                 string `yaml:"id"`
	Name               string `yaml:"name"`
	Code               string `yaml:"code"`
	CodeArmRequired    bool   `yaml:"code_arm_required"`
	CodeDisarmRequired bool   `yaml:"code_disarm_required"`
}

func LoadConfig(configFile string) (*Config, error) {
	data, err := ioutil.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	// Set default values
	if config.MQTT.ClientID == "" {
		config.MQTT.ClientID = "dmp2mqtt"
	}
	if config.MQTT.Host == "" {
		config.MQTT.Host = "localhost"
	}
	if config.MQTT.Port == 0 {
		config.MQTT.Port = 1883
	}
	if config.MQTT.Keepalive == 0 {
		config.MQTT.Keepalive = 60
	}
	if config.MQTT.Prefix == "" {
		config.MQTT.Prefix = "dmp2mqtt"
	}
	if config.HomeAssistant.Prefix == "" {
		config.HomeAssistant.Prefix = "homeassistant"
	}
	if config.Log == "" {
		config.Log = "info"
	}
	if config.Panel.Port == 0 {
		config.Panel.Port = 2011
	}
	if config.Panel.Timeout == 0 {
		config.Panel.Timeout = 10
	}
	if config.Panel.RateLimitMS == 0 {
		config.Panel.RateLimitMS = 300
	}
	if config.Panel.MaxPages == 0 {
		config.Panel.MaxPages = 32
	}
	if config.Panel.Keepalive == 0 {
		config.Panel.Keepalive = 30
	}
	if config.Listen.Port == 0 {
		config.Listen.Port = 5001
	}

	return &config, nil
}
