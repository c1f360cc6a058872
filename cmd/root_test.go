package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmsie/aeo/internal"
	"github.com/jmsie/aeo/testutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// cliEnv is an isolated cache directory and config file for running commands
type cliEnv struct {
	dir    string
	config string
	server string
}

func newCLIEnv(t *testing.T, serverURL string) *cliEnv {
	t.Helper()
	dir := testutil.CreateTempDir(t)
	t.Setenv("AEO_CACHE_DIR", dir)
	t.Setenv("AEO_MAX_ATTEMPTS", "1")
	return &cliEnv{
		dir:    dir,
		config: testutil.WriteFile(t, dir, "config.yaml", "cache_backend: file\n"),
		server: serverURL,
	}
}

// run executes the root command with args after resetting every flag
func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	full := append([]string{"--config", e.config}, args...)
	if e.server != "" {
		full = append([]string{"--server", e.server}, full...)
	}
	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(full)
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	err := rootCmd.Execute()
	return stdout.String(), err
}

// resetFlags restores flag defaults; cobra keeps flag state between runs
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func TestRootCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
		want    string
	}{
		{
			name: "version flag",
			args: []string{"--version"},
			want: "dev",
		},
		{
			name: "help flag",
			args: []string{"--help"},
			want: "aeo",
		},
		{
			name:    "nonexistent command",
			args:    []string{"nonexistent-command"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags(rootCmd)
			rootCmd.SetArgs(tt.args)
			var stdout bytes.Buffer
			rootCmd.SetOut(&stdout)
			rootCmd.SetErr(&bytes.Buffer{})

			err := rootCmd.Execute()
			if (err != nil) != tt.wantErr {
				t.Errorf("rootCmd.Execute() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.want != "" && !strings.Contains(stdout.String(), tt.want) {
				t.Errorf("output %q should contain %q", stdout.String(), tt.want)
			}
		})
	}
}

func TestLoadConfig_FlagsOverride(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	path := testutil.WriteFile(t, dir, "config.yaml", "server_url: http://from-file:9000\ncache_backend: memory\n")
	t.Setenv("AEO_SERVER_URL", "")

	resetFlags(rootCmd)
	configPath = path

	c, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if c.ServerURL != "http://from-file:9000" || c.CacheBackend != "memory" {
		t.Errorf("loadConfig() = %+v", c)
	}

	serverURL = "http://from-flag:1"
	cacheBackend = "file"
	c, err = loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if c.ServerURL != "http://from-flag:1" || c.CacheBackend != "file" {
		t.Errorf("flags should win over the config file, got %+v", c)
	}
	resetFlags(rootCmd)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	env := newCLIEnv(t, "")
	env.config = filepath.Join(env.dir, "missing.yaml")

	if _, err := env.run(t, "session", "current"); err == nil {
		t.Error("an explicit config path that does not exist should fail")
	}
}

func TestLoadFile_HTMLIsSanitized(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	path := testutil.WriteFile(t, dir, "page.html", `<p>Go is <b>fast</b><script>alert(1)</script></p>`)

	a, err := openApp(memoryConfig(), nil)
	if err != nil {
		t.Fatalf("openApp() error = %v", err)
	}
	defer a.Close()

	if err := loadFile(a.editor, path); err != nil {
		t.Fatalf("loadFile() error = %v", err)
	}
	if got := a.editor.PlainText(); got != "Go is fast" {
		t.Errorf("PlainText() = %q, want %q", got, "Go is fast")
	}
	if strings.Contains(a.editor.Markup(), "script") {
		t.Errorf("markup kept a script: %q", a.editor.Markup())
	}
}

func TestLoadFile_Missing(t *testing.T) {
	a, err := openApp(memoryConfig(), nil)
	if err != nil {
		t.Fatalf("openApp() error = %v", err)
	}
	defer a.Close()

	if err := loadFile(a.editor, filepath.Join(os.TempDir(), "aeo-does-not-exist.txt")); err == nil {
		t.Error("loadFile() of a missing file should fail")
	}
}

func TestLogLevelFromConfig(t *testing.T) {
	env := newCLIEnv(t, "")
	t.Cleanup(func() { internal.SetLogLevel(internal.LogLevelInfo) })

	t.Setenv("AEO_LOG_LEVEL", "warn")
	if _, err := env.run(t, "session", "list"); err != nil {
		t.Fatalf("session list error = %v", err)
	}
	if got := internal.CurrentLogLevel(); got != internal.LogLevelWarn {
		t.Errorf("level = %v, want warn", got)
	}

	if _, err := env.run(t, "--verbose", "session", "list"); err != nil {
		t.Fatalf("session list error = %v", err)
	}
	if got := internal.CurrentLogLevel(); got != internal.LogLevelDebug {
		t.Errorf("--verbose should win over log_level, got %v", got)
	}

	t.Setenv("AEO_LOG_LEVEL", "loud")
	if _, err := env.run(t, "session", "list"); err == nil {
		t.Error("an unknown log level should fail")
	}
}
