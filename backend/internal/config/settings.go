package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// Environment variables understood by the console.
const (
	EnvBaseURL    = "FLOWTEST_CONSOLE_BASE_URL"
	EnvNamespace  = "FLOWTEST_CONSOLE_NAMESPACE"
	EnvListen     = "FLOWTEST_CONSOLE_LISTEN"
	EnvKubeconfig = "KUBECONFIG"
)

// Defaults applied before the settings file, environment and flags.
const (
	DefaultListenAddress   = ":8080"
	DefaultNamespace       = "default"
	DefaultFlowTestGroup   = "loggingpipelineplumber.isala.me"
	DefaultFlowTestVersion = "v1alpha1"
	DefaultFlowGroup       = "logging.banzaicloud.io"
	DefaultFlowVersion     = "v1beta1"
)

// Settings is the resolved runtime configuration of the console.
type Settings struct {
	ListenAddress string `yaml:"listenAddress"`

	// BaseURL points at an API proxy. Empty means kubeconfig or in-cluster credentials.
	BaseURL    string `yaml:"baseURL"`
	Kubeconfig string `yaml:"kubeconfig"`
	Context    string `yaml:"context"`

	// Namespace holds every FlowTest the console lists, creates and deletes.
	Namespace string `yaml:"namespace"`

	FlowTestGroup   string `yaml:"flowTestGroup"`
	FlowTestVersion string `yaml:"flowTestVersion"`
	FlowGroup       string `yaml:"flowGroup"`
	FlowVersion     string `yaml:"flowVersion"`

	LogTailLines int `yaml:"logTailLines"`
}

// Defaults returns settings populated with the built-in defaults.
func Defaults() Settings {
	return Settings{
		ListenAddress:   DefaultListenAddress,
		Namespace:       DefaultNamespace,
		FlowTestGroup:   DefaultFlowTestGroup,
		FlowTestVersion: DefaultFlowTestVersion,
		FlowGroup:       DefaultFlowGroup,
		FlowVersion:     DefaultFlowVersion,
		LogTailLines:    DefaultLogTailLines,
	}
}

// LoadFile overlays the YAML document at path onto s. Fields absent from the file keep their value.
func (s *Settings) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read settings file: %w", err)
	}
	var fromFile Settings
	if err := yaml.UnmarshalStrict(data, &fromFile); err != nil {
		return fmt.Errorf("parse settings file %s: %w", path, err)
	}
	s.merge(fromFile)
	return nil
}

// ApplyEnv overlays values from the process environment onto s.
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(EnvBaseURL); ok {
		s.BaseURL = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvNamespace); ok && strings.TrimSpace(v) != "" {
		s.Namespace = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvListen); ok && strings.TrimSpace(v) != "" {
		s.ListenAddress = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvKubeconfig); ok && s.Kubeconfig == "" {
		s.Kubeconfig = strings.TrimSpace(v)
	}
}

// Validate reports configuration that cannot produce a working client.
func (s Settings) Validate() error {
	if s.BaseURL != "" {
		u, err := url.Parse(s.BaseURL)
		if err != nil {
			return fmt.Errorf("invalid base URL %q: %w", s.BaseURL, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("invalid base URL %q: scheme must be http or https", s.BaseURL)
		}
		if u.Host == "" {
			return fmt.Errorf("invalid base URL %q: missing host", s.BaseURL)
		}
	}
	if s.Namespace == "" {
		return fmt.Errorf("namespace must not be empty")
	}
	if s.FlowTestGroup == "" || s.FlowTestVersion == "" {
		return fmt.Errorf("flowtest API group and version must not be empty")
	}
	if s.FlowGroup == "" || s.FlowVersion == "" {
		return fmt.Errorf("flow API group and version must not be empty")
	}
	if s.LogTailLines < 0 || s.LogTailLines > MaxLogTailLines {
		return fmt.Errorf("logTailLines must be between 0 and %d", MaxLogTailLines)
	}
	return nil
}

func (s *Settings) merge(o Settings) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&s.ListenAddress, o.ListenAddress)
	set(&s.BaseURL, o.BaseURL)
	set(&s.Kubeconfig, o.Kubeconfig)
	set(&s.Context, o.Context)
	set(&s.Namespace, o.Namespace)
	set(&s.FlowTestGroup, o.FlowTestGroup)
	set(&s.FlowTestVersion, o.FlowTestVersion)
	set(&s.FlowGroup, o.FlowGroup)
	set(&s.FlowVersion, o.FlowVersion)
	if o.LogTailLines > 0 {
		s.LogTailLines = o.LogTailLines
	}
}
