// Copyright 2025 Drivergate
// SPDX-License-Identifier: BUSL-1.1
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the runtime options of the drivergate service from a
// YAML file with environment variable expansion and overrides.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"drivergate/tweak"
)

// Runtime is the root runtime configuration.
type Runtime struct {
	Version     string            `yaml:"version"`
	Status      StatusConfig      `yaml:"status"`
	Weaving     WeavingConfig     `yaml:"weaving"`
	Publication PublicationConfig `yaml:"publication"`
}

// StatusConfig configures the status and metrics endpoint.
type StatusConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// WeavingConfig configures the load-time call redirection.
type WeavingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// PublicationConfig configures how module driver registrations are made
// available.
type PublicationConfig struct {
	// DefaultCondition is the availability condition applied to modules
	// that no control adjusts: "never", "linkable" or "active".
	DefaultCondition string `yaml:"default_condition"`
}

// Default returns the configuration used without a config file.
func Default() *Runtime {
	return &Runtime{
		Version: "1.0",
		Status: StatusConfig{
			Enabled: true,
			Address: ":9487",
		},
		Weaving: WeavingConfig{
			Enabled: true,
		},
		Publication: PublicationConfig{
			DefaultCondition: "active",
		},
	}
}

// Load reads the configuration file, expands environment variable
// references, applies DRIVERGATE_* environment overrides and validates the
// result. An empty path yields the defaults with overrides applied.
func Load(path string) (*Runtime, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		expanded := expandEnvVars(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Runtime) Validate() error {
	if _, err := c.Publication.Condition(); err != nil {
		return err
	}
	if c.Status.Enabled && c.Status.Address == "" {
		return fmt.Errorf("status endpoint enabled without an address")
	}
	return nil
}

// Condition parses the configured default availability condition.
func (c PublicationConfig) Condition() (tweak.Condition, error) {
	switch strings.ToLower(strings.TrimSpace(c.DefaultCondition)) {
	case "", "active":
		return tweak.WhenActive, nil
	case "linkable":
		return tweak.WhenLinkable, nil
	case "never":
		return tweak.Never, nil
	default:
		return tweak.Never, fmt.Errorf("invalid publication condition '%s'", c.DefaultCondition)
	}
}

// applyEnvOverrides lets the environment win over the file values.
func applyEnvOverrides(cfg *Runtime) {
	if v := os.Getenv("DRIVERGATE_STATUS_ENABLED"); v != "" {
		cfg.Status.Enabled = isTrue(v)
	}
	if v := os.Getenv("DRIVERGATE_STATUS_ADDRESS"); v != "" {
		cfg.Status.Address = v
	}
	if v := os.Getenv("DRIVERGATE_WEAVING_ENABLED"); v != "" {
		cfg.Weaving.Enabled = isTrue(v)
	}
	if v := os.Getenv("DRIVERGATE_PUBLICATION_CONDITION"); v != "" {
		cfg.Publication.DefaultCondition = v
	}
}

func isTrue(value string) bool {
	switch strings.ToLower(value) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// envVarRegex matches ${VAR_NAME} or $VAR_NAME patterns
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnvVars expands environment variable references in the string
// Supports both ${VAR_NAME} and $VAR_NAME syntax as well as default values
// with ${VAR_NAME:-default}
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		// Handle default values: ${VAR_NAME:-default}
		defaultVal := ""
		if idx := strings.Index(varName, ":-"); idx != -1 {
			defaultVal = varName[idx+2:]
			varName = varName[:idx]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultVal
	})
}

// GenerateExampleConfigFile generates an example configuration file
func GenerateExampleConfigFile() string {
	return `# Drivergate Runtime Configuration
# Environment variables can be referenced using ${VAR_NAME} or
# ${VAR_NAME:-default} syntax.

version: "1.0"

status:
  enabled: true
  address: ${DRIVERGATE_STATUS_ADDRESS:-:9487}

weaving:
  enabled: true

publication:
  # When the drivers of a module become available: never, linkable, active
  default_condition: active
`
}
