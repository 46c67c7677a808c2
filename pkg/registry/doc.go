/*
Package registry configures the container-registry credential helper.

The docker auth config is the one artifact bootstrap merges instead of
overwriting. Apply drives a three-state transition over the file:

  - Absent: create a fresh document holding only the credHelpers mapping.
  - Present without a credHelpers section: back up, add the section, insert
    the entry.
  - Present with the section: back up, insert or overwrite the one entry.

All pre-existing keys survive untouched at the JSON-value level. A
timestamped backup is taken before any mutation of an existing file; the
fresh-create path has nothing to back up. Malformed JSON is an error, never
silently replaced.

VerifyHelper confirms the helper executable is discoverable on the search
path; bootstrap fails before service activation when it is not.
*/
package registry
