package appconfig

import "testing"

func TestDefaultConfigIsValid(t *testing.T) {
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if _, ok := cfg.Interpreter(cfg.DefaultInterpreter); !ok {
		t.Fatalf("expected default interpreter %q to exist", cfg.DefaultInterpreter)
	}
}

func TestStoryInterpreterFallsBackToDefault(t *testing.T) {
	cfg := Config{
		DefaultInterpreter: "glulxe",
		Interpreters: []InterpreterConfig{
			{Name: "glulxe", Protocol: "glk", Binary: "glulxe"},
			{Name: "dfrotz", Protocol: "raw", Binary: "dfrotz"},
		},
	}
	interp, ok := cfg.StoryInterpreter(StoryConfig{Name: "Zork", File: "zork.z5"})
	if !ok || interp.Name != "glulxe" {
		t.Fatalf("expected default interpreter, got %+v (ok=%t)", interp, ok)
	}
	interp, ok = cfg.StoryInterpreter(StoryConfig{Name: "Zork", File: "zork.z5", Interpreter: "dfrotz"})
	if !ok || interp.Name != "dfrotz" {
		t.Fatalf("expected dfrotz, got %+v (ok=%t)", interp, ok)
	}
}
