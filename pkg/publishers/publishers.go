package publishers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	// Supported publisher types.
	TypeHTTP      = "http"
	TypeSQS       = "sqs"
	TypeSNS       = "sns"
	TypeGCPPubSub = "gcp_pubsub"

	httpDefaultMethod         = "POST"
	httpDefaultTimeoutSeconds = 5
)

// configFile represents the structure of the publishers configuration file.
type configFile struct {
	Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
}

// PublisherConfig represents a single publisher entry declared in config files.
type PublisherConfig struct {
	ID        string                    `json:"id" yaml:"id"`
	Type      string                    `json:"type" yaml:"type"`
	Enabled   *bool                     `json:"enabled" yaml:"enabled"`
	HTTP      *HTTPPublisherConfig      `json:"http" yaml:"http"`
	SQS       *SQSPublisherConfig       `json:"sqs" yaml:"sqs"`
	SNS       *SNSPublisherConfig       `json:"sns" yaml:"sns"`
	GCPPubSub *GCPPubSubPublisherConfig `json:"gcp_pubsub" yaml:"gcp_pubsub"`
}

// HTTPPublisherConfig holds webhook settings.
type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// AWSCredentialsConfig holds static AWS credentials. When absent the default
// credential chain is used.
type AWSCredentialsConfig struct {
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
	SessionToken    string `json:"session_token" yaml:"session_token"`
}

// SQSPublisherConfig holds AWS SQS specific settings.
type SQSPublisherConfig struct {
	QueueURL    string                `json:"uri" yaml:"uri"`
	Region      string                `json:"region" yaml:"region"`
	Endpoint    string                `json:"endpoint" yaml:"endpoint"`
	Credentials *AWSCredentialsConfig `json:"credentials" yaml:"credentials"`
}

// SNSPublisherConfig holds AWS SNS specific settings.
type SNSPublisherConfig struct {
	TopicARN    string                `json:"topic_arn" yaml:"topic_arn"`
	Region      string                `json:"region" yaml:"region"`
	Endpoint    string                `json:"endpoint" yaml:"endpoint"`
	Credentials *AWSCredentialsConfig `json:"credentials" yaml:"credentials"`
}

// GCPPubSubPublisherConfig holds Google Cloud Pub/Sub settings.
type GCPPubSubPublisherConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// ConfigRegistry materializes publisher definitions loaded from config files.
type ConfigRegistry struct {
	mu         sync.RWMutex
	publishers []PublisherConfig
	idx        map[string]PublisherConfig
}

// LoadRegistry loads the publisher registry from a YAML/JSON file. A missing
// file is reported with an error wrapping fs.ErrNotExist.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}

	fileReg, err := parsePublisherRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return newConfigRegistry(fileReg.Publishers)
}

func newConfigRegistry(entries []PublisherConfig) (*ConfigRegistry, error) {
	if len(entries) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}

	reg := &ConfigRegistry{
		publishers: make([]PublisherConfig, len(entries)),
		idx:        make(map[string]PublisherConfig, len(entries)),
	}
	for i := range entries {
		cfg := sanitizePublisherConfig(entries[i])
		if err := validatePublisherConfig(cfg); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, exists := reg.idx[cfg.ID]; exists {
			return nil, fmt.Errorf("duplicate publisher id %q", cfg.ID)
		}
		reg.publishers[i] = cfg
		reg.idx[cfg.ID] = cfg
	}
	return reg, nil
}

// parsePublisherRegistry decodes the file by extension, trying YAML then JSON
// when the extension is unknown.
func parsePublisherRegistry(data []byte, ext string) (configFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		exts []string
		fn   func([]byte, any) error
	}{
		{name: "yaml", exts: []string{".yaml", ".yml"}, fn: yaml.Unmarshal},
		{name: "json", exts: []string{".json"}, fn: json.Unmarshal},
	}

	known := false
	for _, d := range decoders {
		for _, e := range d.exts {
			known = known || e == ext
		}
	}

	var errs []error
	for _, d := range decoders {
		if known && !contains(d.exts, ext) {
			continue
		}
		var reg configFile
		if err := d.fn(data, &reg); err != nil {
			errs = append(errs, fmt.Errorf("decode %s publishers: %w", d.name, err))
			continue
		}
		return reg, nil
	}
	return configFile{}, errors.Join(append([]error{errors.New("publishers file format not recognized (expected YAML or JSON)")}, errs...)...)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// sanitizePublisherConfig trims and normalizes the publisher config fields.
func sanitizePublisherConfig(cfg PublisherConfig) PublisherConfig {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))

	if cfg.Enabled == nil {
		def := true
		cfg.Enabled = &def
	}
	if cfg.HTTP != nil {
		c := *cfg.HTTP
		c.URL = strings.TrimSpace(c.URL)
		c.Method = strings.ToUpper(strings.TrimSpace(c.Method))
		if c.Method == "" {
			c.Method = httpDefaultMethod
		}
		c.Headers = sanitizeHeaders(c.Headers)
		if c.TimeoutSeconds <= 0 {
			c.TimeoutSeconds = httpDefaultTimeoutSeconds
		}
		cfg.HTTP = &c
	}
	if cfg.SQS != nil {
		c := *cfg.SQS
		c.QueueURL = strings.TrimSpace(c.QueueURL)
		c.Region = strings.TrimSpace(c.Region)
		c.Endpoint = strings.TrimSpace(c.Endpoint)
		cfg.SQS = &c
	}
	if cfg.SNS != nil {
		c := *cfg.SNS
		c.TopicARN = strings.TrimSpace(c.TopicARN)
		c.Region = strings.TrimSpace(c.Region)
		c.Endpoint = strings.TrimSpace(c.Endpoint)
		cfg.SNS = &c
	}
	if cfg.GCPPubSub != nil {
		c := *cfg.GCPPubSub
		c.ProjectID = strings.TrimSpace(c.ProjectID)
		c.Topic = strings.TrimSpace(c.Topic)
		c.CredentialsFile = strings.TrimSpace(c.CredentialsFile)
		cfg.GCPPubSub = &c
	}
	return cfg
}

// sanitizeHeaders trims and removes empty headers.
func sanitizeHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		key := strings.TrimSpace(k)
		val := strings.TrimSpace(v)
		if key == "" || val == "" {
			continue
		}
		out[key] = val
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// validatePublisherConfig checks that required fields are present.
func validatePublisherConfig(cfg PublisherConfig) error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}

	switch cfg.Type {
	case "":
		return fmt.Errorf("type is required for publisher %q", cfg.ID)
	case TypeHTTP:
		if cfg.HTTP == nil {
			return fmt.Errorf("http config required for publisher %q", cfg.ID)
		}
		if cfg.HTTP.URL == "" {
			return fmt.Errorf("http.url is required for publisher %q", cfg.ID)
		}
	case TypeSQS:
		if cfg.SQS == nil {
			return fmt.Errorf("sqs config required for publisher %q", cfg.ID)
		}
		if cfg.SQS.QueueURL == "" {
			return fmt.Errorf("sqs.uri is required for publisher %q", cfg.ID)
		}
		if cfg.SQS.Region == "" {
			return fmt.Errorf("sqs.region is required for publisher %q", cfg.ID)
		}
		return validateAWSCredentials(cfg.ID, "sqs", cfg.SQS.Credentials)
	case TypeSNS:
		if cfg.SNS == nil {
			return fmt.Errorf("sns config required for publisher %q", cfg.ID)
		}
		if cfg.SNS.TopicARN == "" {
			return fmt.Errorf("sns.topic_arn is required for publisher %q", cfg.ID)
		}
		if cfg.SNS.Region == "" {
			return fmt.Errorf("sns.region is required for publisher %q", cfg.ID)
		}
		return validateAWSCredentials(cfg.ID, "sns", cfg.SNS.Credentials)
	case TypeGCPPubSub:
		if cfg.GCPPubSub == nil {
			return fmt.Errorf("gcp_pubsub config required for publisher %q", cfg.ID)
		}
		if cfg.GCPPubSub.ProjectID == "" || cfg.GCPPubSub.Topic == "" {
			return fmt.Errorf("gcp_pubsub.project_id and gcp_pubsub.topic are required for publisher %q", cfg.ID)
		}
	}
	return nil
}

func validateAWSCredentials(id, section string, creds *AWSCredentialsConfig) error {
	if creds == nil {
		return nil
	}
	if strings.TrimSpace(creds.AccessKeyID) == "" || strings.TrimSpace(creds.SecretAccessKey) == "" {
		return fmt.Errorf("%s.credentials needs access_key_id and secret_access_key for publisher %q", section, id)
	}
	return nil
}

// ByID returns the publisher config by id.
func (r *ConfigRegistry) ByID(id string) (PublisherConfig, bool) {
	if r == nil {
		return PublisherConfig{}, false
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return PublisherConfig{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.idx[id]
	return cfg, ok
}

// All returns all configured publishers.
func (r *ConfigRegistry) All() []PublisherConfig {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]PublisherConfig, len(r.publishers))
	copy(out, r.publishers)
	return out
}

// Enabled returns publishers that are enabled.
func (r *ConfigRegistry) Enabled() []PublisherConfig {
	var out []PublisherConfig
	for _, cfg := range r.All() {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}

// EnabledValue returns enabled flag defaulting to true.
func (cfg PublisherConfig) EnabledValue() bool {
	if cfg.Enabled == nil {
		return true
	}
	return *cfg.Enabled
}
