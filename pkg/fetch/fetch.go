package fetch

import (
	"archive/zip"
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/cuemby/burrow/pkg/log"
	"github.com/cuemby/burrow/pkg/metrics"
)

const (
	// hashicorpReleases is the vendor host for orchestrator and
	// coordinator archives.
	hashicorpReleases = "https://releases.hashicorp.com"

	// ecrHelperReleases hosts the prebuilt ECR credential helper.
	ecrHelperReleases = "https://amazon-ecr-credential-helper-releases.s3.us-east-2.amazonaws.com"
)

// Release identifies one version-pinned downloadable binary.
type Release struct {
	// Binary is the executable name installed into the install dir.
	Binary string

	Version string

	// URL is the archive (or raw binary) to download.
	URL string

	// ChecksumURL points at a SHA256SUMS-format document covering the
	// download.
	ChecksumURL string

	// ChecksumName is the filename to look up in the checksum document.
	ChecksumName string

	// RawBinary marks downloads that are the executable itself rather
	// than a zip archive.
	RawBinary bool
}

// HashicorpRelease builds the Release for a product from
// releases.hashicorp.com, linux/amd64.
func HashicorpRelease(product, version string) Release {
	archive := fmt.Sprintf("%s_%s_linux_amd64.zip", product, version)
	return Release{
		Binary:       product,
		Version:      version,
		URL:          fmt.Sprintf("%s/%s/%s/%s", hashicorpReleases, product, version, archive),
		ChecksumURL:  fmt.Sprintf("%s/%s/%s/%s_%s_SHA256SUMS", hashicorpReleases, product, version, product, version),
		ChecksumName: archive,
	}
}

// ECRHelperRelease builds the Release for the docker-credential-ecr-login
// helper binary.
func ECRHelperRelease(version string) Release {
	const binary = "docker-credential-ecr-login"
	url := fmt.Sprintf("%s/%s/linux-amd64/%s", ecrHelperReleases, version, binary)
	return Release{
		Binary:       binary,
		Version:      version,
		URL:          url,
		ChecksumURL:  url + ".sha256",
		ChecksumName: binary,
		RawBinary:    true,
	}
}

// Fetcher downloads version-pinned binaries over HTTPS, verifies them
// against the vendor's published checksums, and installs them.
type Fetcher struct {
	client     *retryablehttp.Client
	installDir string
	logger     zerolog.Logger
}

// NewFetcher creates a Fetcher installing into installDir.
func NewFetcher(installDir string) *Fetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = 4
	client.Logger = nil

	return &Fetcher{
		client:     client,
		installDir: installDir,
		logger:     log.WithComponent("fetch"),
	}
}

// Install downloads, verifies and installs a release. The archive is
// deleted afterwards; on any failure nothing is installed.
func (f *Fetcher) Install(ctx context.Context, rel Release) error {
	f.logger.Info().
		Str("binary", rel.Binary).
		Str("version", rel.Version).
		Msg("Downloading release")

	archivePath, sum, err := f.download(ctx, rel.URL)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", rel.Binary, err)
	}
	defer os.Remove(archivePath)

	expected, err := f.expectedChecksum(ctx, rel)
	if err != nil {
		return fmt.Errorf("failed to fetch checksum for %s: %w", rel.Binary, err)
	}
	if sum != expected {
		return fmt.Errorf("checksum mismatch for %s: got %s, want %s", rel.Binary, sum, expected)
	}

	binPath := archivePath
	if !rel.RawBinary {
		binPath, err = f.extract(archivePath, rel.Binary)
		if err != nil {
			return fmt.Errorf("failed to extract %s: %w", rel.Binary, err)
		}
		defer os.Remove(binPath)
	}

	if err := f.place(binPath, rel.Binary); err != nil {
		return fmt.Errorf("failed to install %s: %w", rel.Binary, err)
	}

	f.logger.Info().
		Str("binary", rel.Binary).
		Str("path", filepath.Join(f.installDir, rel.Binary)).
		Msg("Installed release")
	return nil
}

// InstalledPath returns where a binary lands after Install.
func (f *Fetcher) InstalledPath(binary string) string {
	return filepath.Join(f.installDir, binary)
}

// download fetches url to a temp file and returns its path and sha256.
func (f *Fetcher) download(ctx context.Context, url string) (string, string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return "", "", fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	tmp, err := os.CreateTemp("", "burrow-download-*")
	if err != nil {
		return "", "", err
	}

	hasher := sha256.New()
	n, err := io.Copy(tmp, io.TeeReader(resp.Body, hasher))
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", "", err
	}

	metrics.DownloadBytesTotal.Add(float64(n))

	return tmp.Name(), hex.EncodeToString(hasher.Sum(nil)), nil
}

// expectedChecksum fetches the SHA256SUMS document and returns the entry
// matching the release's archive name.
func (f *Fetcher) expectedChecksum(ctx context.Context, rel Release) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", rel.ChecksumURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return "", fmt.Errorf("unexpected status %d from %s", resp.StatusCode, rel.ChecksumURL)
	}

	// SHA256SUMS format: "<hex>  <filename>" per line. A single-entry
	// .sha256 file may omit the filename.
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 1 {
			return fields[0], nil
		}
		if len(fields) >= 2 && filepath.Base(fields[1]) == rel.ChecksumName {
			return fields[0], nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}

	return "", fmt.Errorf("no checksum entry for %s", rel.ChecksumName)
}

// extract pulls the named binary out of a zip archive into a temp file.
func (f *Fetcher) extract(archivePath, binary string) (string, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return "", err
	}
	defer r.Close()

	for _, file := range r.File {
		if filepath.Base(file.Name) != binary {
			continue
		}

		src, err := file.Open()
		if err != nil {
			return "", err
		}
		defer src.Close()

		tmp, err := os.CreateTemp("", "burrow-extract-*")
		if err != nil {
			return "", err
		}

		if _, err := io.Copy(tmp, src); err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			return "", err
		}
		if err := tmp.Close(); err != nil {
			os.Remove(tmp.Name())
			return "", err
		}
		return tmp.Name(), nil
	}

	return "", fmt.Errorf("archive does not contain %s", binary)
}

// place moves a staged binary into the install dir with executable bits,
// via rename so a concurrent exec never sees a partial file.
func (f *Fetcher) place(src, binary string) error {
	if err := os.MkdirAll(f.installDir, 0755); err != nil {
		return err
	}

	staged := filepath.Join(f.installDir, "."+binary+".tmp")
	if err := copyFile(src, staged, 0755); err != nil {
		return err
	}

	dst := filepath.Join(f.installDir, binary)
	if err := os.Rename(staged, dst); err != nil {
		os.Remove(staged)
		return err
	}
	return nil
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}

// VersionInstalled reports whether the binary at path identifies itself as
// the pinned version. A missing or unrunnable binary is simply "not
// installed", never an error.
func VersionInstalled(ctx context.Context, path, version string) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}

	out, err := exec.CommandContext(ctx, path, "version").CombinedOutput()
	if err != nil {
		// ECR helper uses a -v flag rather than a subcommand.
		out, err = exec.CommandContext(ctx, path, "-v").CombinedOutput()
		if err != nil {
			return false
		}
	}
	return strings.Contains(string(out), version)
}
