// pattern: Functional Core

package discovery

// Project is a git repository found during directory scanning.
type Project struct {
	Name      string `json:"name"`      // directory name, used as display name
	Path      string `json:"path"`      // absolute path to the repository root
	LoomCount int    `json:"loomCount"` // managed loom records in the repository
	Managed   bool   `json:"managed"`   // whether the repository has gitloom state at all
}
