package targets

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
	"unicode"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
	"gopkg.in/yaml.v3"
)

const (
	defaultHandshakeTimeout = 55 * time.Second
	defaultStepTimeout      = 10 * time.Second
	defaultFailureGrace     = 4 * time.Second
	defaultRuntime          = "docker"
)

// Catalog is the set of testable targets, keyed by name.
type Catalog struct {
	Targets map[string]*TargetConfig `yaml:"targets"`
}

// TargetConfig describes one container image speaking the MCP stdio
// transport and the scenarios to run against it.
type TargetConfig struct {
	Name          string               `yaml:"-"`
	Image         string               `yaml:"image"`
	Description   string               `yaml:"description"`
	Runtime       string               `yaml:"runtime"`
	TransportArgs []string             `yaml:"transportArgs"`
	Keys          map[string]*KeySpec  `yaml:"keys"`
	RequiredTools []string             `yaml:"requiredTools"`
	Invocations   []Invocation         `yaml:"invocations"`
	Handshakes    []HandshakeScenario  `yaml:"handshakes"`
	Validations   []ValidationScenario `yaml:"validations"`
	Timeouts      Timeouts             `yaml:"timeouts"`
}

// KeySpec describes one logical credential key: where its value comes from
// in the .env file, and how it is delivered to the target (CLI flag and/or
// environment variable).
type KeySpec struct {
	Flag     string   `yaml:"flag"`
	Env      string   `yaml:"env"`
	From     []string `yaml:"from"`
	Default  string   `yaml:"default"`
	Required bool     `yaml:"required"`
	Secret   bool     `yaml:"secret"`
	PEM      bool     `yaml:"pem"`
}

// Invocation is one tools/call probe configured for a target.
type Invocation struct {
	Tool      string                 `yaml:"tool"`
	Arguments map[string]interface{} `yaml:"arguments"`
}

// ArgumentsValue converts the YAML arguments into a JSON value for the
// request payload.
func (i Invocation) ArgumentsValue() ldvalue.Value {
	if len(i.Arguments) == 0 {
		return ldvalue.ObjectBuild().Build()
	}
	data, err := json.Marshal(i.Arguments)
	if err != nil {
		return ldvalue.ObjectBuild().Build()
	}
	return ldvalue.Parse(data)
}

// HandshakeScenario is one credential-delivery variation that must complete
// the initialize handshake.
type HandshakeScenario struct {
	Name string `yaml:"name"`
	// Only restricts the launch to these keys; empty means all keys with
	// values.
	Only []string `yaml:"only"`
	// Force overrides the delivery channel per key: "flag" or "env".
	Force map[string]string `yaml:"force"`
}

// ValidationScenario is one launch that must refuse to run.
type ValidationScenario struct {
	Name string   `yaml:"name"`
	Only []string `yaml:"only"`
	// Fallback supplies placeholder values for keys the .env file does not
	// provide (e.g. a dummy private key for the conflicting-auth check).
	Fallback    map[string]string `yaml:"fallback"`
	ExpectError string            `yaml:"expectError"`
}

// Timeouts is the per-step deadline budget for a target, in seconds.
type Timeouts struct {
	HandshakeSeconds    int `yaml:"handshakeSeconds"`
	StepSeconds         int `yaml:"stepSeconds"`
	FailureGraceSeconds int `yaml:"failureGraceSeconds"`
}

func (t Timeouts) Handshake() time.Duration {
	if t.HandshakeSeconds > 0 {
		return time.Duration(t.HandshakeSeconds) * time.Second
	}
	return defaultHandshakeTimeout
}

func (t Timeouts) Step() time.Duration {
	if t.StepSeconds > 0 {
		return time.Duration(t.StepSeconds) * time.Second
	}
	return defaultStepTimeout
}

func (t Timeouts) FailureGrace() time.Duration {
	if t.FailureGraceSeconds > 0 {
		return time.Duration(t.FailureGraceSeconds) * time.Second
	}
	return defaultFailureGrace
}

// LoadCatalog reads and validates the target catalog.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	for name, tc := range c.Targets {
		tc.Name = name
		if tc.Image == "" {
			return nil, fmt.Errorf("target %q has no image", name)
		}
		if tc.Runtime == "" {
			tc.Runtime = defaultRuntime
		}
	}
	return &c, nil
}

// Target looks up one target by name.
func (c *Catalog) Target(name string) (*TargetConfig, error) {
	tc := c.Targets[name]
	if tc == nil {
		return nil, fmt.Errorf("unknown target %q (have: %s)", name, strings.Join(c.Names(), ", "))
	}
	return tc, nil
}

// Names returns the configured target names, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.Targets))
	for n := range c.Targets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Credentials is the resolved value for each logical credential key.
type Credentials map[string]string

// ResolveCredentials looks up every key's value in the .env contents,
// returning the resolved values and the names of required keys that had no
// value. Missing required keys mean the target's scenarios should be
// skipped, not failed.
func (tc *TargetConfig) ResolveCredentials(env EnvValues) (Credentials, []string) {
	creds := Credentials{}
	var missing []string
	for key, spec := range tc.Keys {
		value := env.Get(tc.lookupNames(key, spec)...)
		if value == "" {
			value = spec.Default
		}
		if value != "" {
			creds[key] = value
		} else if spec.Required {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return creds, missing
}

func (tc *TargetConfig) lookupNames(key string, spec *KeySpec) []string {
	if len(spec.From) > 0 {
		return spec.From
	}
	return []string{strings.ToUpper(tc.Name) + "_" + upperSnake(key)}
}

// upperSnake converts a camelCase key like privateKey to PRIVATE_KEY.
func upperSnake(key string) string {
	var b strings.Builder
	for i, r := range key {
		if unicode.IsUpper(r) && i > 0 {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// LooksLikePEM reports whether a value appears to be a complete PEM block.
// Truncated keys in .env files are a common configuration mistake; scenarios
// that need one skip rather than fail against a broken key.
func LooksLikePEM(value string) bool {
	return strings.HasPrefix(value, "-----BEGIN") &&
		strings.Contains(value, "-----END") &&
		len(value) >= 500
}
