package cmd

import (
	"strings"
	"testing"

	"github.com/jmsie/aeo/testutil"
)

func TestGenerateCommand(t *testing.T) {
	remote := testutil.NewFakeRemote(t)
	remote.Intents = []string{"what is go", "is go fast", "go vs rust", "who made go", "go history", "go mascot"}
	env := newCLIEnv(t, remote.URL)
	file := testutil.WriteFile(t, env.dir, "answer.md", "Go is a language from Google.")

	out, err := env.run(t, "generate", "--file", file)
	if err != nil {
		t.Fatalf("generate error = %v", err)
	}
	if !strings.Contains(out, "1. what is go") || !strings.Contains(out, "5. go history") {
		t.Errorf("generate output = %q", out)
	}
	if strings.Contains(out, "go mascot") || !strings.Contains(out, "(1 more not kept)") {
		t.Errorf("only %d queries should be kept, got %q", 5, out)
	}
}

func TestGenerateCommand_EmptyText(t *testing.T) {
	remote := testutil.NewFakeRemote(t)
	env := newCLIEnv(t, remote.URL)
	file := testutil.WriteFile(t, env.dir, "empty.txt", "   ")

	if _, err := env.run(t, "generate", "--file", file); err == nil {
		t.Error("generate on empty text should fail")
	}
	if n := remote.Calls("/generate_queries"); n != 0 {
		t.Errorf("no generate call expected, got %d", n)
	}
}
