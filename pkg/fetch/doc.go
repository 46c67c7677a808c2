/*
Package fetch downloads, verifies and installs version-pinned binaries.

Archives come from the vendor release hosts over HTTPS with bounded retries
(hashicorp/go-retryablehttp). Every download is checked against the vendor's
published SHA256SUMS document before anything is extracted or installed; a
mismatch aborts the install with nothing placed on disk.

Installation is atomic: the binary is staged next to its destination and
renamed into place, so a concurrently starting service never execs a partial
file. Archives are deleted after extraction.

Release constructors:
  - HashicorpRelease: zip archives from releases.hashicorp.com
  - ECRHelperRelease: the raw credential-helper binary with a .sha256 sidecar
*/
package fetch
