package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/odvcencio/minigit/pkg/diff"
)

func TestDiffCmdWorkingTree(t *testing.T) {
	r := setupRepo(t)
	commitCmdFile(t, r, "a.txt", "one\ntwo\n", "init")
	writeCmdFile(t, r, "a.txt", "one\nTWO\n")

	out, err := runCmd(t, newDiffCmd(), "--color=never")
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	for _, want := range []string{"diff --git a/a.txt b/a.txt\n", "--- a/a.txt\n", "+++ b/a.txt\n", "-two\n", "+TWO\n"} {
		if !strings.Contains(out, want) {
			t.Fatalf("diff output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("diff --color=never emitted escapes:\n%q", out)
	}
}

func TestDiffCmdCachedAndStat(t *testing.T) {
	r := setupRepo(t)
	commitCmdFile(t, r, "a.txt", "one\n", "init")
	writeCmdFile(t, r, "b.txt", "b1\nb2\n")

	out, err := runCmd(t, newDiffCmd(), "--cached", "--stat")
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if out != "No changes\n" {
		t.Fatalf("cached diff before add = %q", out)
	}

	if _, err := r.Add([]string{"b.txt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	out, err = runCmd(t, newDiffCmd(), "--cached", "--stat")
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if out != "1 file changed, 2 insertions\n" {
		t.Fatalf("cached diff stat = %q", out)
	}
}

func TestDiffCmdColorAlways(t *testing.T) {
	r := setupRepo(t)
	commitCmdFile(t, r, "a.txt", "one\n", "init")
	writeCmdFile(t, r, "a.txt", "two\n")

	out, err := runCmd(t, newDiffCmd(), "--color=always")
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if !strings.Contains(out, "\x1b[") {
		t.Fatalf("diff --color=always emitted no escapes:\n%q", out)
	}
}

func TestDiffCmdRejectsBadColor(t *testing.T) {
	setupRepo(t)
	if _, err := runCmd(t, newDiffCmd(), "--color=sometimes"); err == nil {
		t.Fatalf("expected error for invalid --color")
	}
}

func TestUseColorAutoOnBuffer(t *testing.T) {
	got, err := useColor("auto", &bytes.Buffer{})
	if err != nil {
		t.Fatalf("useColor: %v", err)
	}
	if got {
		t.Fatalf("useColor(auto, buffer) = true, want false")
	}
}

func TestDiffStylerLeavesContextPlain(t *testing.T) {
	style := newDiffStyler(&bytes.Buffer{})
	if got := style(diff.PartContext, " same"); got != " same" {
		t.Fatalf("context line styled: %q", got)
	}
	if got := style(diff.PartAdded, "+new"); !strings.Contains(got, "+new") || got == "+new" {
		t.Fatalf("added line = %q, want colored +new", got)
	}
}
