package rules

import "github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/models"

// ResultKind tags the shape of an EvaluationResult.
type ResultKind int

const (
	// KindNone means the rule produced nothing.
	KindNone ResultKind = iota
	// KindScalar is a bare compliance type for the invocation's resource.
	KindScalar
	// KindSingle is one fully built record.
	KindSingle
	// KindBatch is any number of fully built records.
	KindBatch
)

func (k ResultKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindScalar:
		return "scalar"
	case KindSingle:
		return "single"
	case KindBatch:
		return "batch"
	default:
		return "unknown"
	}
}

// EvaluationResult is what a Rule returns. Only the field matching Kind is
// meaningful.
type EvaluationResult struct {
	Kind       ResultKind
	Compliance models.ComplianceType
	Record     models.EvaluationRecord
	Records    []models.EvaluationRecord
}

// NoResult reports that the rule has nothing to say.
func NoResult() EvaluationResult {
	return EvaluationResult{Kind: KindNone}
}

// Scalar reports ct for the invocation's resource.
func Scalar(ct models.ComplianceType) EvaluationResult {
	return EvaluationResult{Kind: KindScalar, Compliance: ct}
}

// Single reports one record.
func Single(r models.EvaluationRecord) EvaluationResult {
	return EvaluationResult{Kind: KindSingle, Record: r}
}

// Batch reports a list of records. Resources previously reported by the
// rule but absent from records are retired during reconciliation.
func Batch(records ...models.EvaluationRecord) EvaluationResult {
	return EvaluationResult{Kind: KindBatch, Records: records}
}
