package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Remote.BaseURL != "http://localhost:5000" {
		t.Fatalf("expected default remote base url, got %q", cfg.Remote.BaseURL)
	}
	if cfg.Recording.MaxDuration != 300 {
		t.Fatalf("expected default max duration 300, got %d", cfg.Recording.MaxDuration)
	}
	if len(cfg.Filter.SeedWords) != 3 {
		t.Fatalf("expected 3 seed words, got %v", cfg.Filter.SeedWords)
	}
	if cfg.Filter.MaskingToken != "***" {
		t.Fatalf("expected default masking token, got %q", cfg.Filter.MaskingToken)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("VOXSIFT_REMOTE_BASE_URL", "http://filter-svc:9000")
	t.Setenv("VOXSIFT_REMOTE_PROBE_TIMEOUT_MS", "500")
	t.Setenv("VOXSIFT_RECORDING_MODE", "exec")
	t.Setenv("VOXSIFT_RECORDING_COMMAND", "arecord -q -f S16_LE")
	t.Setenv("VOXSIFT_RECORDING_DEFAULT_DURATION_S", "10")
	t.Setenv("VOXSIFT_RECORDING_MAX_DURATION_S", "120")
	t.Setenv("VOXSIFT_FILTER_DEFAULT_METHOD", "aho_corasick")
	t.Setenv("VOXSIFT_FILTER_SEED_WORDS", "foo, bar ,baz")
	t.Setenv("VOXSIFT_BUS_ENABLED", "true")
	t.Setenv("VOXSIFT_BUS_SERVERS", "nats://one:4222, nats://two:4222")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Remote.BaseURL != "http://filter-svc:9000" {
		t.Fatalf("expected remote base url override, got %q", cfg.Remote.BaseURL)
	}
	if cfg.Remote.ProbeTimeoutMS != 500 {
		t.Fatalf("expected probe timeout 500, got %d", cfg.Remote.ProbeTimeoutMS)
	}
	if cfg.Recording.Mode != "exec" || cfg.Recording.Command == "" {
		t.Fatalf("expected exec recording override, got %+v", cfg.Recording)
	}
	if cfg.Recording.DefaultDuration != 10 || cfg.Recording.MaxDuration != 120 {
		t.Fatalf("expected duration overrides, got %+v", cfg.Recording)
	}
	if cfg.Filter.DefaultMethod != "aho_corasick" {
		t.Fatalf("expected filter method override, got %q", cfg.Filter.DefaultMethod)
	}
	if len(cfg.Filter.SeedWords) != 3 || cfg.Filter.SeedWords[1] != "bar" {
		t.Fatalf("expected trimmed seed words, got %v", cfg.Filter.SeedWords)
	}
	if !cfg.Bus.Enabled || len(cfg.Bus.Servers) != 2 {
		t.Fatalf("expected bus overrides, got %+v", cfg.Bus)
	}
}

func TestValidateRejectsExecWithoutCommand(t *testing.T) {
	t.Setenv("VOXSIFT_RECORDING_MODE", "exec")

	if _, err := Load(""); err == nil {
		t.Fatal("expected validation error for exec mode without command")
	}
}

func TestValidateRejectsMaxBelowDefaultDuration(t *testing.T) {
	t.Setenv("VOXSIFT_RECORDING_MAX_DURATION_S", "5")

	if _, err := Load(""); err == nil {
		t.Fatal("expected validation error for max duration below default")
	}
}
