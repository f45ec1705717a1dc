package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"
)

func writeTestSigningKey(t *testing.T) string {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	block, err := ssh.MarshalPrivateKey(priv, "test key")
	if err != nil {
		t.Fatalf("MarshalPrivateKey: %v", err)
	}
	path := filepath.Join(t.TempDir(), "id_ed25519")
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestSignedCommitVerifies(t *testing.T) {
	r := setupRepo(t)
	keyPath := writeTestSigningKey(t)
	writeCmdFile(t, r, "a.txt", "signed\n")
	if _, err := r.Add([]string{"a.txt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := runCmd(t, newCommitCmd(), "-m", "signed", "--signing-key", keyPath); err != nil {
		t.Fatalf("commit: %v", err)
	}

	head, _, err := r.Refs.ResolveHead()
	if err != nil {
		t.Fatalf("ResolveHead: %v", err)
	}
	c, err := r.Store.ReadCommit(head)
	if err != nil {
		t.Fatalf("ReadCommit: %v", err)
	}
	if !strings.HasPrefix(c.Signature, commitSignaturePrefix+":ssh-ed25519:") {
		t.Fatalf("signature = %q", c.Signature)
	}
	pub, err := verifyCommitSignature(c)
	if err != nil {
		t.Fatalf("verifyCommitSignature: %v", err)
	}
	if pub.Type() != ssh.KeyAlgoED25519 {
		t.Fatalf("key type = %s", pub.Type())
	}

	tampered := *c
	tampered.Message = "not what was signed"
	if _, err := verifyCommitSignature(&tampered); err == nil {
		t.Fatalf("tampered commit verified")
	}
}

func TestVerifyCommitSignatureRejectsEncoding(t *testing.T) {
	r := setupRepo(t)
	h := commitCmdFile(t, r, "a.txt", "a\n", "init")
	c, err := r.Store.ReadCommit(h)
	if err != nil {
		t.Fatalf("ReadCommit: %v", err)
	}
	for _, sig := range []string{"garbage", "sshsig-v1:ssh-ed25519:!!!:AAAA", "gpg:a:b:c"} {
		c.Signature = sig
		if _, err := verifyCommitSignature(c); err == nil {
			t.Errorf("verifyCommitSignature(%q) succeeded", sig)
		}
	}
}

func TestResolveSigningKeyPathExplicit(t *testing.T) {
	got, err := resolveSigningKeyPath("  relative/key  ")
	if err != nil {
		t.Fatalf("resolveSigningKeyPath: %v", err)
	}
	if !filepath.IsAbs(got) || !strings.HasSuffix(got, filepath.Join("relative", "key")) {
		t.Fatalf("resolveSigningKeyPath = %q", got)
	}
}
