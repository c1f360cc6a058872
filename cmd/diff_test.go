package cmd

import (
	"strings"
	"testing"

	"github.com/jmsie/aeo/testutil"
)

func TestDiffCommand(t *testing.T) {
	env := newCLIEnv(t, "")
	oldFile := testutil.WriteFile(t, env.dir, "old.txt", "Go is a closed source language.")
	newFile := testutil.WriteFile(t, env.dir, "new.txt", "Go is an open source language.")

	tests := []struct {
		name    string
		args    []string
		want    []string
		wantErr bool
	}{
		{
			name: "terminal rendering",
			args: []string{"diff", "--old", oldFile, "--new", newFile},
			want: []string{"[-", "{+", "source language."},
		},
		{
			name: "markup",
			args: []string{"diff", "--old", oldFile, "--new", newFile, "--markup"},
			want: []string{`class="aeo-del"`, `class="aeo-ins"`},
		},
		{
			name:    "missing flags",
			args:    []string{"diff", "--old", oldFile},
			wantErr: true,
		},
		{
			name:    "missing file",
			args:    []string{"diff", "--old", oldFile, "--new", env.dir + "/nope.txt"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := env.run(t, tt.args...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("diff error = %v, wantErr %v", err, tt.wantErr)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output should contain %q, got %q", want, out)
				}
			}
		})
	}
}
