package organize

// Strategy controls what happens when a proposal's destination already
// exists.
type Strategy string

const (
	StrategyRename    Strategy = "rename"
	StrategyOverwrite Strategy = "overwrite"
	StrategySkip      Strategy = "skip"
)

// Status tracks a proposal through execution.
type Status string

const (
	StatusPending   Status = "pending"
	StatusMoving    Status = "moving"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
	StatusConflict  Status = "conflict"
)

// Proposal is one planned move, usually produced by the classifier.
type Proposal struct {
	SourcePath      string  `json:"sourcePath"`
	DestinationPath string  `json:"destinationPath"`
	Confidence      float64 `json:"confidence"`
}

// Result is the outcome of executing one proposal. FinalPath may differ
// from the proposal's destination when a collision forced a rename.
type Result struct {
	Proposal  Proposal `json:"proposal"`
	Status    Status   `json:"status"`
	FinalPath string   `json:"finalPath,omitempty"`
	Err       error    `json:"-"`
}

// Summary aggregates a batch of results.
type Summary struct {
	Moved   int `json:"moved"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Count folds one result into the summary.
func (s *Summary) Count(res Result) {
	switch res.Status {
	case StatusCompleted:
		s.Moved++
	case StatusSkipped:
		s.Skipped++
	case StatusFailed:
		s.Failed++
	}
}
