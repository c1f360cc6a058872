package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmsie/aeo/testutil"
)

func TestExportCommand(t *testing.T) {
	remote := testutil.NewFakeRemote(t)
	remote.PutSession("abc", testutil.SampleSessionJSON)
	env := newCLIEnv(t, remote.URL)

	tests := []struct {
		name    string
		args    []string
		wantErr bool
		want    string
	}{
		{
			name:    "export with invalid format",
			args:    []string{"export", "abc", "--format", "invalid"},
			wantErr: true,
		},
		{
			name:    "unknown session",
			args:    []string{"export", "nope", "--out", "-"},
			wantErr: true,
		},
		{
			name:    "no id and no active session",
			args:    []string{"export", "--out", "-"},
			wantErr: true,
		},
		{
			name: "json to stdout",
			args: []string{"export", "abc", "--format", "json", "--out", "-"},
			want: `"session_id": "abc"`,
		},
		{
			name: "markdown to stdout",
			args: []string{"export", "abc", "--format", "md", "--out", "-"},
			want: "what is go",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := env.run(t, tt.args...)
			if (err != nil) != tt.wantErr {
				t.Errorf("export error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.want != "" && !strings.Contains(out, tt.want) {
				t.Errorf("output should contain %q, got:\n%s", tt.want, out)
			}
		})
	}
}

func TestExportCommand_ToDirectory(t *testing.T) {
	remote := testutil.NewFakeRemote(t)
	remote.PutSession("abc", testutil.SampleSessionJSON)
	env := newCLIEnv(t, remote.URL)
	outDir := filepath.Join(env.dir, "exports")

	if _, err := env.run(t, "export", "abc", "--format", "yaml", "--out", outDir); err != nil {
		t.Fatalf("export error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(outDir, "session_abc.yaml"))
	if err != nil {
		t.Fatalf("export file: %v", err)
	}
	if !strings.Contains(string(data), "session_id: abc") {
		t.Errorf("export file = %s", data)
	}
}
