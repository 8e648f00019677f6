package config

import (
	"fmt"
	"time"
)

// Defaults applied by ApplyDefaults
const (
	DefaultRefreshInterval = 30 * time.Second
	DefaultRange           = time.Hour
	DefaultStep            = time.Minute
	DefaultFetchTimeout    = 10 * time.Second
	DefaultPollInterval    = 5 * time.Second
	DefaultAirGradientPort = "80"
	DefaultCacheSize       = 12
	DefaultListenAddr      = "0.0.0.0"
	DefaultHTTPPort        = 8080
	DefaultMQTTTopic       = "airguard/evaluation"
	DefaultMQTTClientID    = "airguard"
)

// Supported source types
const (
	SourcePrometheus  = "prometheus"
	SourceFile        = "file"
	SourceAirGradient = "airgradient"
)

// Supported controller types
const (
	ControllerREST = "rest"
	ControllerMQTT = "mqtt"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetSourceConfig() (*SourceData, error)
	GetCacheConfig() (*CacheData, error)
	GetControllers() ([]ControllerData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Source          SourceData       `json:"source"`
	Cache           CacheData        `json:"cache"`
	RefreshInterval time.Duration    `json:"refresh_interval"`
	Controllers     []ControllerData `json:"controllers,omitempty"`
}

// SourceData describes where raw sensor series are fetched from
type SourceData struct {
	Type        string           `json:"type"`
	Range       time.Duration    `json:"range"` // lookback window per fetch
	Step        time.Duration    `json:"step"`  // resolution of range queries
	Prometheus  *PrometheusData  `json:"prometheus,omitempty"`
	File        *FileData        `json:"file,omitempty"`
	AirGradient *AirGradientData `json:"airgradient,omitempty"`
}

// PrometheusData configures the metrics backend. Queries maps the series name
// handed to the evaluator (any recognized sensor alias) to a PromQL expression.
type PrometheusData struct {
	URL     string            `json:"url"`
	Queries map[string]string `json:"queries"`
	Timeout time.Duration     `json:"timeout"`
}

// FileData points at a JSON snapshot written by some other collector
type FileData struct {
	Path string `json:"path"`
}

// AirGradientData points at an AirGradient monitor on the local network
type AirGradientData struct {
	Hostname     string        `json:"hostname"`
	Port         string        `json:"port,omitempty"`
	PollInterval time.Duration `json:"poll_interval,omitempty"`
}

// CacheData bounds the recent-snapshot cache
type CacheData struct {
	Size int    `json:"size"`
	Path string `json:"path,omitempty"` // optional on-disk copy
}

// ControllerData holds the configuration for the optional controllers
type ControllerData struct {
	Type       string          `json:"type"`
	RESTServer *RESTServerData `json:"rest,omitempty"`
	MQTT       *MQTTData       `json:"mqtt,omitempty"`
}

// RESTServerData configures the relay HTTP server
type RESTServerData struct {
	ListenAddr  string `json:"listen_addr,omitempty"`
	HTTPPort    int    `json:"http_port,omitempty"`
	TLSCertPath string `json:"tls_cert_path,omitempty"`
	TLSKeyPath  string `json:"tls_key_path,omitempty"`
}

// MQTTData configures the evaluation publisher
type MQTTData struct {
	Broker   string `json:"broker"`
	Topic    string `json:"topic,omitempty"`
	ClientID string `json:"client_id,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	QoS      byte   `json:"qos,omitempty"`
}

// ApplyDefaults fills in zero values
func (c *ConfigData) ApplyDefaults() {
	if c.RefreshInterval == 0 {
		c.RefreshInterval = DefaultRefreshInterval
	}
	if c.Source.Range == 0 {
		c.Source.Range = DefaultRange
	}
	if c.Source.Step == 0 {
		c.Source.Step = DefaultStep
	}
	if c.Source.Prometheus != nil && c.Source.Prometheus.Timeout == 0 {
		c.Source.Prometheus.Timeout = DefaultFetchTimeout
	}
	if ag := c.Source.AirGradient; ag != nil {
		if ag.Port == "" {
			ag.Port = DefaultAirGradientPort
		}
		if ag.PollInterval == 0 {
			ag.PollInterval = DefaultPollInterval
		}
	}
	if c.Cache.Size == 0 {
		c.Cache.Size = DefaultCacheSize
	}

	for i := range c.Controllers {
		switch {
		case c.Controllers[i].RESTServer != nil:
			rs := c.Controllers[i].RESTServer
			if rs.ListenAddr == "" {
				rs.ListenAddr = DefaultListenAddr
			}
			if rs.HTTPPort == 0 {
				rs.HTTPPort = DefaultHTTPPort
			}
		case c.Controllers[i].MQTT != nil:
			m := c.Controllers[i].MQTT
			if m.Topic == "" {
				m.Topic = DefaultMQTTTopic
			}
			if m.ClientID == "" {
				m.ClientID = DefaultMQTTClientID
			}
		}
	}
}

// Validate reports the first problem that would keep the application from running
func (c *ConfigData) Validate() error {
	switch c.Source.Type {
	case SourcePrometheus:
		p := c.Source.Prometheus
		if p == nil || p.URL == "" {
			return fmt.Errorf("source.prometheus.url is required for a prometheus source")
		}
		if len(p.Queries) == 0 {
			return fmt.Errorf("source.prometheus.queries must name at least one series")
		}
	case SourceFile:
		if c.Source.File == nil || c.Source.File.Path == "" {
			return fmt.Errorf("source.file.path is required for a file source")
		}
	case SourceAirGradient:
		if c.Source.AirGradient == nil || c.Source.AirGradient.Hostname == "" {
			return fmt.Errorf("source.airgradient.hostname is required for an airgradient source")
		}
	default:
		return fmt.Errorf("unsupported source type %q", c.Source.Type)
	}

	if c.RefreshInterval < 0 || c.Source.Range < 0 || c.Source.Step < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	if c.Cache.Size < 0 {
		return fmt.Errorf("cache.size must not be negative")
	}

	for _, cc := range c.Controllers {
		switch cc.Type {
		case ControllerREST:
			if cc.RESTServer == nil {
				return fmt.Errorf("controller %q is missing its configuration block", cc.Type)
			}
		case ControllerMQTT:
			if cc.MQTT == nil || cc.MQTT.Broker == "" {
				return fmt.Errorf("mqtt controller requires a broker address")
			}
			if cc.MQTT.QoS > 2 {
				return fmt.Errorf("mqtt qos must be 0, 1 or 2")
			}
		default:
			return fmt.Errorf("unknown controller type: %s", cc.Type)
		}
	}
	return nil
}
