package appconfig

import (
	"os"
	"path/filepath"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion      int                 `mapstructure:"config_version" yaml:"config_version"`
	SaveDir            string              `mapstructure:"save_dir" yaml:"save_dir"`
	DefaultStory       string              `mapstructure:"default_story" yaml:"default_story"`
	DefaultInterpreter string              `mapstructure:"default_interpreter" yaml:"default_interpreter"`
	Interpreters       []InterpreterConfig `mapstructure:"interpreters" yaml:"interpreters"`
	Stories            []StoryConfig       `mapstructure:"stories" yaml:"stories"`
	SSH                SSHConfig           `mapstructure:"ssh" yaml:"ssh"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// InterpreterConfig describes how to run one interpreter binary.
type InterpreterConfig struct {
	Name     string   `mapstructure:"name" yaml:"name"`
	Protocol string   `mapstructure:"protocol" yaml:"protocol"`
	Binary   string   `mapstructure:"binary" yaml:"binary"`
	Args     []string `mapstructure:"args" yaml:"args"`
	// Env entries are KEY=VALUE pairs added to the inherited environment.
	Env []string `mapstructure:"env" yaml:"env,omitempty"`
	Dir string   `mapstructure:"dir" yaml:"dir,omitempty"`

	// glk protocol
	Init                bool `mapstructure:"init" yaml:"init,omitempty"`
	Width               int  `mapstructure:"width" yaml:"width,omitempty"`
	Height              int  `mapstructure:"height" yaml:"height,omitempty"`
	FrameTimeoutSeconds int  `mapstructure:"frame_timeout_seconds" yaml:"frame_timeout_seconds,omitempty"`

	// raw protocol
	Encoding         string   `mapstructure:"encoding" yaml:"encoding,omitempty"`
	IdleTimeoutMS    int      `mapstructure:"idle_timeout_ms" yaml:"idle_timeout_ms,omitempty"`
	PromptSuffixes   []string `mapstructure:"prompt_suffixes" yaml:"prompt_suffixes,omitempty"`
	MoreMarkers      []string `mapstructure:"more_markers" yaml:"more_markers,omitempty"`
	MoreHint         string   `mapstructure:"more_hint" yaml:"more_hint,omitempty"`
	StatusDelimiters []string `mapstructure:"status_delimiters" yaml:"status_delimiters,omitempty"`
	StatusSeparator  string   `mapstructure:"status_separator" yaml:"status_separator,omitempty"`
}

// StoryConfig maps a story name to a game file and interpreter.
type StoryConfig struct {
	Name        string `mapstructure:"name" yaml:"name"`
	File        string `mapstructure:"file" yaml:"file"`
	Interpreter string `mapstructure:"interpreter" yaml:"interpreter,omitempty"`
}

// SSHConfig configures the SSH front end.
type SSHConfig struct {
	Addr               string `mapstructure:"addr" yaml:"addr"`
	HostKeyPath        string `mapstructure:"host_key_path" yaml:"host_key_path"`
	IdlePrompt         string `mapstructure:"idle_prompt" yaml:"idle_prompt"`
	AuthorizedKeysPath string `mapstructure:"authorized_keys_path" yaml:"authorized_keys_path,omitempty"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ConfigVersion:      CurrentConfigVersion,
		SaveDir:            filepath.Join(home, ".glkbridge", "saves"),
		DefaultInterpreter: "glulxe",
		Interpreters: []InterpreterConfig{
			{
				Name:     "glulxe",
				Protocol: "glk",
				Binary:   "glulxe",
				Args:     []string{"-fm", "-width", "60", "-height", "100"},
			},
			{
				Name:          "dfrotz",
				Protocol:      "raw",
				Binary:        "dfrotz",
				Args:          []string{},
				Encoding:      "utf-8",
				IdleTimeoutMS: 1000,
			},
		},
		Stories: []StoryConfig{},
		SSH: SSHConfig{
			Addr:        ":2323",
			HostKeyPath: filepath.Join(home, ".glkbridge", "ssh_host_key"),
			IdlePrompt:  "> ",
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".glkbridge", "config.yaml"), nil
}

// Story returns the story with the given name.
func (c Config) Story(name string) (StoryConfig, bool) {
	for _, story := range c.Stories {
		if story.Name == name {
			return story, true
		}
	}
	return StoryConfig{}, false
}

// Interpreter returns the interpreter with the given name.
func (c Config) Interpreter(name string) (InterpreterConfig, bool) {
	for _, interp := range c.Interpreters {
		if interp.Name == name {
			return interp, true
		}
	}
	return InterpreterConfig{}, false
}

// StoryInterpreter returns the interpreter a story runs on, falling back to
// the default interpreter.
func (c Config) StoryInterpreter(story StoryConfig) (InterpreterConfig, bool) {
	name := story.Interpreter
	if name == "" {
		name = c.DefaultInterpreter
	}
	return c.Interpreter(name)
}
