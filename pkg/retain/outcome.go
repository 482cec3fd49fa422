package retain

// Failure is one image the registry refused to delete. These are data, not
// errors: a failed image never aborts the run or its sibling batches.
type Failure struct {
	ImageRef string `json:"imageRef" yaml:"imageRef"`
	Reason   string `json:"reason" yaml:"reason"`
}

// Outcome aggregates the result of a deletion run. Merge is associative with
// the zero Outcome as identity, so per-batch outcomes can be folded in batch
// order regardless of completion order.
type Outcome struct {
	Failures []Failure `json:"failures" yaml:"failures"`
	Deleted  []string  `json:"deleted" yaml:"deleted"`
	Count    int       `json:"count" yaml:"count"`
}

func (o Outcome) Merge(other Outcome) Outcome {
	merged := Outcome{
		Failures: make([]Failure, 0, len(o.Failures)+len(other.Failures)),
		Deleted:  make([]string, 0, len(o.Deleted)+len(other.Deleted)),
		Count:    o.Count + other.Count,
	}
	merged.Failures = append(append(merged.Failures, o.Failures...), other.Failures...)
	merged.Deleted = append(append(merged.Deleted, o.Deleted...), other.Deleted...)
	return merged
}
