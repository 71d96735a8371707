package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const sampleHeader = `# PixelVault settings.
# encryption: aes or none. none stores the hidden file in clear.
# password_iterations and kdf must match between hide and extract.
`

// Sample renders the default settings as a commented YAML document.
func Sample() ([]byte, error) {
	body, err := yaml.Marshal(Default())
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return append([]byte(sampleHeader), body...), nil
}

// WriteSample writes Sample to path. An existing file is left alone unless
// force is set.
func WriteSample(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}
	data, err := Sample()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
