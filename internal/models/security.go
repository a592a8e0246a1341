package models

// RuleParameterSet holds the validated rule parameters. Each field is the
// value the account's S3 public access block is expected to carry.
type RuleParameterSet struct {
	BlockPublicAcls       bool `json:"BlockPublicAcls"       yaml:"block_public_acls"`
	IgnorePublicAcls      bool `json:"IgnorePublicAcls"      yaml:"ignore_public_acls"`
	BlockPublicPolicy     bool `json:"BlockPublicPolicy"     yaml:"block_public_policy"`
	RestrictPublicBuckets bool `json:"RestrictPublicBuckets" yaml:"restrict_public_buckets"`
}

// PublicAccessBlock is the account-level S3 public access block as returned
// by S3 Control. A field missing from the API response is treated as false.
type PublicAccessBlock struct {
	BlockPublicAcls       bool `json:"block_public_acls"`
	IgnorePublicAcls      bool `json:"ignore_public_acls"`
	BlockPublicPolicy     bool `json:"block_public_policy"`
	RestrictPublicBuckets bool `json:"restrict_public_buckets"`
}

// Matches reports whether every field of the observed block equals the
// expected parameter value.
func (b PublicAccessBlock) Matches(p RuleParameterSet) bool {
	return b.BlockPublicAcls == p.BlockPublicAcls &&
		b.IgnorePublicAcls == p.IgnorePublicAcls &&
		b.BlockPublicPolicy == p.BlockPublicPolicy &&
		b.RestrictPublicBuckets == p.RestrictPublicBuckets
}

// AccountPublicAccess is the security data collected for one account: its
// ID and the S3 public access block currently in force.
type AccountPublicAccess struct {
	AccountID string            `json:"account_id"`
	Block     PublicAccessBlock `json:"public_access_block"`
}
