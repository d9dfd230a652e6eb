package domain

// Task is one entry of the structured task list recovered from a backend
// response: a short actionable title plus a one-to-two sentence description.
type Task struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Summary is the final product of one analysis job: a narrative summary and
// the ordered task list. It is produced once per job and never mutated.
type Summary struct {
	Summary string `json:"summary"`
	Tasks   []Task `json:"tasks"`
}

// SummaryRecord is the full payload delivered to clients and persisted per
// user+repo+range. It carries the summary together with the activity it was
// derived from and the window boundaries.
type SummaryRecord struct {
	Repo     string    `json:"repo"`
	Range    RangeKind `json:"range"`
	Since    string    `json:"since"`
	Until    string    `json:"until"`
	Summary  string    `json:"summary"`
	Tasks    []Task    `json:"summary_tasks"`
	Activity *Activity `json:"activity,omitempty"`
}
