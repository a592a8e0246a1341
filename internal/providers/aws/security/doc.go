// Package awssecurity collects the account-level security data evaluated by
// the S3 public access rule: the caller's account ID and the account's S3
// public access block.
//
// The canonical data types live in internal/models so they are shared by
// the rules and provider layers without circular imports.
package awssecurity
