package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file, applies
// defaults and validates the result
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	config, err := ParseYAML(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", y.filename, err)
	}

	y.config = config
	return config, nil
}

// ParseYAML converts a YAML document into ConfigData
func ParseYAML(data []byte) (*ConfigData, error) {
	var yamlConfig ConfigYAML
	if err := yaml.UnmarshalStrict(data, &yamlConfig); err != nil {
		return nil, err
	}

	config, err := yamlConfig.toConfigData()
	if err != nil {
		return nil, err
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (yc *ConfigYAML) toConfigData() (*ConfigData, error) {
	var err error
	config := &ConfigData{
		Source: SourceData{
			Type: yc.Source.Type,
		},
		Cache: CacheData{
			Size: yc.Cache.Size,
			Path: yc.Cache.Path,
		},
		Controllers: make([]ControllerData, len(yc.Controllers)),
	}

	if config.RefreshInterval, err = parseOptionalDuration("refresh-interval", yc.RefreshInterval); err != nil {
		return nil, err
	}
	if config.Source.Range, err = parseOptionalDuration("source.range", yc.Source.Range); err != nil {
		return nil, err
	}
	if config.Source.Step, err = parseOptionalDuration("source.step", yc.Source.Step); err != nil {
		return nil, err
	}

	if p := yc.Source.Prometheus; p != nil {
		config.Source.Prometheus = &PrometheusData{
			URL:     p.URL,
			Queries: p.Queries,
		}
		if config.Source.Prometheus.Timeout, err = parseOptionalDuration("source.prometheus.timeout", p.Timeout); err != nil {
			return nil, err
		}
	}
	if ag := yc.Source.AirGradient; ag != nil {
		config.Source.AirGradient = &AirGradientData{
			Hostname: ag.Hostname,
			Port:     ag.Port,
		}
		if config.Source.AirGradient.PollInterval, err = parseOptionalDuration("source.airgradient.poll-interval", ag.PollInterval); err != nil {
			return nil, err
		}
	}
	if yc.Source.File != nil {
		config.Source.File = &FileData{
			Path: yc.Source.File.Path,
		}
	}

	// Convert controllers
	for i, controller := range yc.Controllers {
		config.Controllers[i] = ControllerData{
			Type: controller.Type,
		}

		if controller.RESTServer != nil {
			config.Controllers[i].RESTServer = &RESTServerData{
				ListenAddr:  controller.RESTServer.ListenAddr,
				HTTPPort:    controller.RESTServer.HTTPPort,
				TLSCertPath: controller.RESTServer.Cert,
				TLSKeyPath:  controller.RESTServer.Key,
			}
		}

		if controller.MQTT != nil {
			config.Controllers[i].MQTT = &MQTTData{
				Broker:   controller.MQTT.Broker,
				Topic:    controller.MQTT.Topic,
				ClientID: controller.MQTT.ClientID,
				Username: controller.MQTT.Username,
				Password: controller.MQTT.Password,
				QoS:      controller.MQTT.QoS,
			}
		}
	}

	return config, nil
}

func (y *YAMLProvider) loaded() (*ConfigData, error) {
	if y.config == nil {
		if _, err := y.LoadConfig(); err != nil {
			return nil, err
		}
	}
	return y.config, nil
}

// GetSourceConfig returns the series source configuration
func (y *YAMLProvider) GetSourceConfig() (*SourceData, error) {
	c, err := y.loaded()
	if err != nil {
		return nil, err
	}
	return &c.Source, nil
}

// GetCacheConfig returns snapshot cache configuration
func (y *YAMLProvider) GetCacheConfig() (*CacheData, error) {
	c, err := y.loaded()
	if err != nil {
		return nil, err
	}
	return &c.Cache, nil
}

// GetControllers returns controller configurations
func (y *YAMLProvider) GetControllers() ([]ControllerData, error) {
	c, err := y.loaded()
	if err != nil {
		return nil, err
	}
	return c.Controllers, nil
}

// IsReadOnly returns true since YAML files are read-only through this interface
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

// YAML-specific structs. Durations stay strings until toConfigData so that
// every supported spelling goes through ParseDuration.
type ConfigYAML struct {
	Source          SourceYAML       `yaml:"source"`
	Cache           CacheYAML        `yaml:"cache,omitempty"`
	RefreshInterval string           `yaml:"refresh-interval,omitempty"`
	Controllers     []ControllerYAML `yaml:"controllers,omitempty"`
}

type SourceYAML struct {
	Type        string           `yaml:"type"`
	Range       string           `yaml:"range,omitempty"`
	Step        string           `yaml:"step,omitempty"`
	Prometheus  *PrometheusYAML  `yaml:"prometheus,omitempty"`
	File        *FileYAML        `yaml:"file,omitempty"`
	AirGradient *AirGradientYAML `yaml:"airgradient,omitempty"`
}

type PrometheusYAML struct {
	URL     string            `yaml:"url"`
	Queries map[string]string `yaml:"queries"`
	Timeout string            `yaml:"timeout,omitempty"`
}

type FileYAML struct {
	Path string `yaml:"path"`
}

type AirGradientYAML struct {
	Hostname     string `yaml:"hostname"`
	Port         string `yaml:"port,omitempty"`
	PollInterval string `yaml:"poll-interval,omitempty"`
}

type CacheYAML struct {
	Size int    `yaml:"size,omitempty"`
	Path string `yaml:"path,omitempty"`
}

type ControllerYAML struct {
	Type       string          `yaml:"type,omitempty"`
	RESTServer *RESTServerYAML `yaml:"rest,omitempty"`
	MQTT       *MQTTYAML       `yaml:"mqtt,omitempty"`
}

type RESTServerYAML struct {
	Cert       string `yaml:"cert,omitempty"`
	Key        string `yaml:"key,omitempty"`
	HTTPPort   int    `yaml:"http-port,omitempty"`
	ListenAddr string `yaml:"listen-addr,omitempty"`
}

type MQTTYAML struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic,omitempty"`
	ClientID string `yaml:"client-id,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	QoS      byte   `yaml:"qos,omitempty"`
}
