package domain

// Artifact identifies a downloadable archive produced by a workflow run
type Artifact struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_in_bytes"`
}

// WorkflowRun is one execution of a CI workflow
type WorkflowRun struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	HeadBranch   string `json:"head_branch"`
	Status       string `json:"status"`
	Conclusion   string `json:"conclusion"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
	WorkflowID   int64  `json:"workflow_id"`
	WorkflowName string `json:"workflow_name"`
	RunNumber    int    `json:"run_number"`
	Actor        string `json:"actor"`
}

// Concluded reports whether the run has finished; artifact lists of finished runs never change.
func (r WorkflowRun) Concluded() bool {
	return r.Conclusion != ""
}
