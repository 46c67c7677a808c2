package fetch

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func zipWithBinary(t *testing.T, binary string, content []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create(binary)
	if err != nil {
		t.Fatalf("zip Create() error = %v", err)
	}
	if _, err := f.Write(content); err != nil {
		t.Fatalf("zip Write() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zip Close() error = %v", err)
	}
	return buf.Bytes()
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func TestInstall_Archive(t *testing.T) {
	content := []byte("#!/bin/sh\necho fake-agent\n")
	archive := zipWithBinary(t, "agent", content)

	mux := http.NewServeMux()
	mux.HandleFunc("/agent.zip", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	})
	mux.HandleFunc("/SHA256SUMS", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%s  agent.zip\n", sha256Hex(archive))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	installDir := t.TempDir()
	f := NewFetcher(installDir)

	rel := Release{
		Binary:       "agent",
		Version:      "1.0.0",
		URL:          srv.URL + "/agent.zip",
		ChecksumURL:  srv.URL + "/SHA256SUMS",
		ChecksumName: "agent.zip",
	}

	if err := f.Install(context.Background(), rel); err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	installed, err := os.ReadFile(filepath.Join(installDir, "agent"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !bytes.Equal(installed, content) {
		t.Error("installed binary content does not match archive member")
	}

	info, err := os.Stat(filepath.Join(installDir, "agent"))
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Mode().Perm() != 0755 {
		t.Errorf("installed mode = %v, want 0755", info.Mode().Perm())
	}
}

func TestInstall_RawBinary(t *testing.T) {
	content := []byte("raw helper binary")

	mux := http.NewServeMux()
	mux.HandleFunc("/docker-credential-ecr-login", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(content)
	})
	mux.HandleFunc("/docker-credential-ecr-login.sha256", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%s\n", sha256Hex(content))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	installDir := t.TempDir()
	f := NewFetcher(installDir)

	rel := Release{
		Binary:       "docker-credential-ecr-login",
		Version:      "0.7.1",
		URL:          srv.URL + "/docker-credential-ecr-login",
		ChecksumURL:  srv.URL + "/docker-credential-ecr-login.sha256",
		ChecksumName: "docker-credential-ecr-login",
		RawBinary:    true,
	}

	if err := f.Install(context.Background(), rel); err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	installed, err := os.ReadFile(filepath.Join(installDir, "docker-credential-ecr-login"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !bytes.Equal(installed, content) {
		t.Error("installed helper content does not match download")
	}
}

func TestInstall_ChecksumMismatch(t *testing.T) {
	archive := zipWithBinary(t, "agent", []byte("content"))

	mux := http.NewServeMux()
	mux.HandleFunc("/agent.zip", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	})
	mux.HandleFunc("/SHA256SUMS", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%s  agent.zip\n", sha256Hex([]byte("something else")))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	installDir := t.TempDir()
	f := NewFetcher(installDir)

	rel := Release{
		Binary:       "agent",
		Version:      "1.0.0",
		URL:          srv.URL + "/agent.zip",
		ChecksumURL:  srv.URL + "/SHA256SUMS",
		ChecksumName: "agent.zip",
	}

	err := f.Install(context.Background(), rel)
	if err == nil {
		t.Fatal("Install() with bad checksum should fail")
	}

	// Nothing may be installed on failure
	if _, err := os.Stat(filepath.Join(installDir, "agent")); !os.IsNotExist(err) {
		t.Error("binary was installed despite checksum mismatch")
	}
}

func TestInstall_MissingChecksumEntry(t *testing.T) {
	archive := zipWithBinary(t, "agent", []byte("content"))

	mux := http.NewServeMux()
	mux.HandleFunc("/agent.zip", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	})
	mux.HandleFunc("/SHA256SUMS", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%s  other.zip\n", sha256Hex(archive))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewFetcher(t.TempDir())

	rel := Release{
		Binary:       "agent",
		Version:      "1.0.0",
		URL:          srv.URL + "/agent.zip",
		ChecksumURL:  srv.URL + "/SHA256SUMS",
		ChecksumName: "agent.zip",
	}

	if err := f.Install(context.Background(), rel); err == nil {
		t.Fatal("Install() without a checksum entry should fail")
	}
}

func TestHashicorpRelease(t *testing.T) {
	rel := HashicorpRelease("nomad", "1.6.2")

	wantURL := "https://releases.hashicorp.com/nomad/1.6.2/nomad_1.6.2_linux_amd64.zip"
	if rel.URL != wantURL {
		t.Errorf("URL = %v, want %v", rel.URL, wantURL)
	}
	if rel.ChecksumName != "nomad_1.6.2_linux_amd64.zip" {
		t.Errorf("ChecksumName = %v", rel.ChecksumName)
	}
	if rel.RawBinary {
		t.Error("hashicorp releases are archives, not raw binaries")
	}
}

func TestVersionInstalled_Missing(t *testing.T) {
	if VersionInstalled(context.Background(), filepath.Join(t.TempDir(), "nope"), "1.0.0") {
		t.Error("VersionInstalled() = true for missing binary")
	}
}
