package domain

// CoverageTree holds every file needed to render one coverage report standalone
type CoverageTree struct {
	Name      string            // Artifact name the tree was collected from
	IndexPath string            // Archive path of the HTML index
	Files     map[string]string // Archive path -> text content
}

// Manifest is the optional test-viewer.json found inside an artifact
type Manifest struct {
	JUnit        []string `json:"junit,omitempty"`
	HTMLCoverage string   `json:"html_coverage,omitempty"`
}
