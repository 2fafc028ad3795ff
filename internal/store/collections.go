package store

// Projects is the collection holding project records.
const Projects = "projects"

// LatestAnalysisID is the id of the most recent analysis of a project.
const LatestAnalysisID = "latest"

// AnalysisCollection returns the sub-collection holding analysis results
// for the project projectID.
func AnalysisCollection(projectID string) string {
	return Projects + "/" + projectID + "/analysis"
}
