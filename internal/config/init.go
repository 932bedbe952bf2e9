package config

import (
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/dayplan/internal/foundation/errors"
)

const defaultConfigTemplate = `# dayplan configuration
store:
  # Path to the SQLite task database.
  path: ${HOME}/.local/share/dayplan/tasks.db

projection:
  default_days: 7
  buffer_days: 3

rollover:
  lookback_days: 60
  interval: 15m

metrics:
  enabled: false
  addr: ":9184"

events:
  enabled: false
  nats_url: nats://localhost:4222
  subject_prefix: dayplan
`

// Init writes a starter configuration file. Refuses to overwrite an
// existing file unless force is set.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError("configuration file already exists").
			WithContext("path", configPath).Build()
	}
	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.WrapError(err, errors.CategoryConfig, "create config directory").Build()
		}
	}
	if err := os.WriteFile(configPath, []byte(defaultConfigTemplate), 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "write config file").Build()
	}
	return nil
}
