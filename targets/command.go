package targets

import (
	"os"
	"sort"
	"strings"

	"github.com/alessio/shellescape"
	"github.com/google/uuid"

	"github.com/dbtoolbox/mcp-contract-tests/process"
)

// LaunchPlan is an immutable-by-convention builder for one launch of a
// target: which credential keys are supplied and over which channel. Plans
// are derived from the full credential set and narrowed per scenario.
type LaunchPlan struct {
	tc      *TargetConfig
	values  Credentials
	channel map[string]string // key -> "flag" | "env"
}

// NewPlan starts a plan including every resolved credential.
func (tc *TargetConfig) NewPlan(creds Credentials) *LaunchPlan {
	values := Credentials{}
	for k, v := range creds {
		values[k] = v
	}
	return &LaunchPlan{tc: tc, values: values, channel: map[string]string{}}
}

// Only narrows the plan to the named keys.
func (p *LaunchPlan) Only(keys ...string) *LaunchPlan {
	keep := map[string]bool{}
	for _, k := range keys {
		keep[k] = true
	}
	for k := range p.values {
		if !keep[k] {
			delete(p.values, k)
		}
	}
	return p
}

// ForceChannel overrides the delivery channel for one key.
func (p *LaunchPlan) ForceChannel(key, channel string) *LaunchPlan {
	p.channel[key] = channel
	return p
}

// WithFallback supplies a placeholder value for a key that resolved empty.
func (p *LaunchPlan) WithFallback(key, value string) *LaunchPlan {
	if p.values[key] == "" {
		p.values[key] = value
	}
	return p
}

// Has reports whether the plan carries a value for key.
func (p *LaunchPlan) Has(key string) bool {
	return p.values[key] != ""
}

// Value returns the plan's value for key.
func (p *LaunchPlan) Value(key string) string {
	return p.values[key]
}

// channelFor picks how a key's value travels to the target. Secrets prefer
// the environment so they never appear in argv; everything else prefers a
// CLI flag when one is configured.
func (p *LaunchPlan) channelFor(key string, spec *KeySpec) string {
	if ch := p.channel[key]; ch != "" {
		return ch
	}
	if spec.Secret && spec.Env != "" {
		return "env"
	}
	if spec.Flag != "" {
		return "flag"
	}
	return "env"
}

// Command assembles the container run command. The returned display string
// is a shell-quoted rendering for debug logs; secret values delivered via
// the environment never appear in it.
func (p *LaunchPlan) Command() (process.Command, string) {
	tc := p.tc

	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		if tc.Keys[k] != nil {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var flagArgs []string
	envNames := []string{}
	envPairs := map[string]string{}
	for _, key := range keys {
		spec := tc.Keys[key]
		switch p.channelFor(key, spec) {
		case "flag":
			if spec.Flag != "" {
				flagArgs = append(flagArgs, spec.Flag, p.values[key])
			}
		default:
			if spec.Env != "" {
				envNames = append(envNames, spec.Env)
				envPairs[spec.Env] = p.values[key]
			}
		}
	}
	sort.Strings(envNames)

	containerName := tc.Name + "-conformance-" + uuid.NewString()[:8]
	args := []string{"run", "--rm", "-i", "--name", containerName}
	for _, name := range envNames {
		args = append(args, "-e", name)
	}
	args = append(args, tc.Image)
	args = append(args, flagArgs...)
	args = append(args, tc.TransportArgs...)

	env := os.Environ()
	for _, name := range envNames {
		env = append(env, name+"="+envPairs[name])
	}

	cmd := process.Command{Path: tc.Runtime, Args: args, Env: env}
	display := shellescape.QuoteCommand(append([]string{tc.Runtime}, args...))
	return cmd, display
}

// RedactedKeys lists the keys whose values travel via the environment, for
// log lines that explain what a launch omitted or included.
func (p *LaunchPlan) RedactedKeys() []string {
	var names []string
	for key := range p.values {
		spec := p.tc.Keys[key]
		if spec != nil && p.channelFor(key, spec) == "env" {
			names = append(names, key)
		}
	}
	sort.Strings(names)
	return names
}

// Describe summarizes the plan for debug output.
func (p *LaunchPlan) Describe() string {
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "credentials: " + strings.Join(keys, ", ")
}
