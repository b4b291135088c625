package config

import (
	"os"

	luxerrors "git.home.luguber.info/inful/luxd/internal/errors"
)

// starterConfig is the annotated configuration written by `luxd init`.
const starterConfig = `# luxd configuration
http:
  port: 8080

storage:
  data_dir: ./data

control:
  # Remote writes are rejected for this interval after a local write.
  lockout_window: 5s
  # Quiet interval that closes a burst of changes into one log entry.
  debounce_cooldown: 1s

# Optional: publish lighting changes to NATS.
nats:
  enabled: false
  url: nats://127.0.0.1:4222
  subject: luxd.lighting

# Optional: mirror audit entries into a queryable sqlite archive.
archive:
  enabled: false

watcher:
  disabled: false

scheduler:
  disabled: false
`

// Init writes a starter configuration file. Existing files are
// preserved unless force is set.
func Init(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return luxerrors.ConfigInvalid("file already exists, use --force to overwrite", nil).
				WithContext("path", path)
		}
	}
	if err := os.WriteFile(path, []byte(starterConfig), 0o644); err != nil {
		return luxerrors.IOFailure("write config", err)
	}
	return nil
}
