package appconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from the provided path. If path is empty, uses DefaultConfigPath.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("save_dir", cfg.SaveDir)
	v.SetDefault("default_story", cfg.DefaultStory)
	v.SetDefault("default_interpreter", cfg.DefaultInterpreter)
	v.SetDefault("interpreters", cfg.Interpreters)
	v.SetDefault("stories", cfg.Stories)
	v.SetDefault("ssh.addr", cfg.SSH.Addr)
	v.SetDefault("ssh.host_key_path", cfg.SSH.HostKeyPath)
	v.SetDefault("ssh.idle_prompt", cfg.SSH.IdlePrompt)
	v.SetDefault("ssh.authorized_keys_path", cfg.SSH.AuthorizedKeysPath)

	configLoaded := false
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	} else {
		configLoaded = true
	}

	if configLoaded {
		if !v.IsSet("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	expandConfigEnv(&cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross references between interpreters and stories.
func Validate(cfg Config) error {
	names := make(map[string]struct{}, len(cfg.Interpreters))
	for i, interp := range cfg.Interpreters {
		name := strings.TrimSpace(interp.Name)
		if name == "" {
			return fmt.Errorf("interpreters[%d].name is required", i)
		}
		if _, dup := names[name]; dup {
			return fmt.Errorf("duplicate interpreter %q", name)
		}
		names[name] = struct{}{}
		switch interp.Protocol {
		case "glk", "raw":
		default:
			return fmt.Errorf("unsupported protocol %q for interpreter %q", interp.Protocol, name)
		}
		if strings.TrimSpace(interp.Binary) == "" {
			return fmt.Errorf("interpreter %q: binary is required", name)
		}
		if interp.IdleTimeoutMS < 0 || interp.FrameTimeoutSeconds < 0 {
			return fmt.Errorf("interpreter %q: timeouts must not be negative", name)
		}
	}
	if cfg.DefaultInterpreter != "" {
		if _, ok := names[cfg.DefaultInterpreter]; !ok {
			return fmt.Errorf("default_interpreter %q is not configured", cfg.DefaultInterpreter)
		}
	}
	stories := make(map[string]struct{}, len(cfg.Stories))
	for i, story := range cfg.Stories {
		name := strings.TrimSpace(story.Name)
		if name == "" {
			return fmt.Errorf("stories[%d].name is required", i)
		}
		if _, dup := stories[name]; dup {
			return fmt.Errorf("duplicate story %q", name)
		}
		stories[name] = struct{}{}
		if strings.TrimSpace(story.File) == "" {
			return fmt.Errorf("story %q: file is required", name)
		}
		interp := story.Interpreter
		if interp == "" {
			interp = cfg.DefaultInterpreter
		}
		if _, ok := names[interp]; !ok {
			return fmt.Errorf("story %q: interpreter %q is not configured", name, interp)
		}
	}
	if cfg.DefaultStory != "" {
		if _, ok := stories[cfg.DefaultStory]; !ok {
			return fmt.Errorf("default_story %q is not configured", cfg.DefaultStory)
		}
	}
	return nil
}

func expandConfigEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.SaveDir = expandEnv(cfg.SaveDir)
	cfg.SSH.HostKeyPath = expandEnv(cfg.SSH.HostKeyPath)
	cfg.SSH.AuthorizedKeysPath = expandEnv(cfg.SSH.AuthorizedKeysPath)
	for i := range cfg.Interpreters {
		cfg.Interpreters[i].Binary = expandEnv(cfg.Interpreters[i].Binary)
		cfg.Interpreters[i].Dir = expandEnv(cfg.Interpreters[i].Dir)
	}
	for i := range cfg.Stories {
		cfg.Stories[i].File = expandEnv(cfg.Stories[i].File)
	}
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	if strings.HasPrefix(value, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			value = filepath.Join(home, value[2:])
		}
	}
	return os.Expand(value, func(key string) string {
		if key == "" {
			return ""
		}
		if val, ok := lookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

func lookupEnv(key string) (string, bool) {
	if val, ok := os.LookupEnv(key); ok {
		return val, true
	}
	switch key {
	case "UID":
		return fmt.Sprintf("%d", os.Getuid()), true
	case "GID":
		return fmt.Sprintf("%d", os.Getgid()), true
	}
	return "", false
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
