package codec

import "github.com/roach88/dbsim/internal/model"

// ProjectsKey holds the project list.
const ProjectsKey = "projects"

const (
	tablesPrefix    = "tables_"
	dataPrefix      = "tableData_"
	structurePrefix = "tableStructure_"
)

// TablesKey returns the key of a project's table list.
func TablesKey(projectID string) string {
	return tablesPrefix + projectID
}

// DataKey returns the key of a table's row data.
func DataKey(ref model.TableRef) string {
	return dataPrefix + ref.ProjectID + "_" + ref.Table
}

// StructureKey returns the key of a table's structure view.
func StructureKey(ref model.TableRef) string {
	return structurePrefix + ref.ProjectID + "_" + ref.Table
}

// DataPrefix returns the prefix shared by every data key of a project.
func DataPrefix(projectID string) string {
	return dataPrefix + projectID + "_"
}

// StructurePrefix returns the prefix shared by every structure key of a project.
func StructurePrefix(projectID string) string {
	return structurePrefix + projectID + "_"
}
