package connect

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/roach88/dbsim/internal/model"
)

// Field is one connection parameter of a kind.
type Field struct {
	Name   string `json:"name"`
	Label  string `json:"label"`
	Rule   string `json:"rule"` // validator tag, e.g. "required,numeric"
	Secret bool   `json:"secret,omitempty"`
}

// KindSpec describes a database kind and the parameters it requires.
type KindSpec struct {
	Kind        model.Kind `json:"kind"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Family      model.Kind `json:"family"` // equal to Kind for family entries
	Fields      []Field    `json:"fields"`
}

// Required lists the required field names in display order.
func (k KindSpec) Required() []string {
	names := make([]string, len(k.Fields))
	for i, f := range k.Fields {
		names[i] = f.Name
	}
	return names
}

// Families.
const (
	Relational       model.Kind = "relational"
	Document         model.Kind = "document"
	DocumentCloud    model.Kind = "document-cloud"
	DocumentCloudAlt model.Kind = "document-cloud-alt"
)

var (
	relationalFields = []Field{
		{Name: "host", Label: "Host", Rule: "required"},
		{Name: "port", Label: "Port", Rule: "required,numeric"},
		{Name: "database", Label: "Database Name", Rule: "required"},
		{Name: "username", Label: "Username", Rule: "required"},
		{Name: "password", Label: "Password", Rule: "required", Secret: true},
	}
	documentFields = []Field{
		{Name: "connectionString", Label: "Connection String", Rule: "required", Secret: true},
		{Name: "database", Label: "Database Name", Rule: "required"},
	}
	documentCloudFields = []Field{
		{Name: "projectId", Label: "Project ID", Rule: "required"},
		{Name: "apiKey", Label: "API Key", Rule: "required", Secret: true},
	}
	documentCloudAltFields = []Field{
		{Name: "projectUrl", Label: "Project URL", Rule: "required"},
		{Name: "apiKey", Label: "API Key", Rule: "required", Secret: true},
	}
)

// Catalog is the set of kinds a project can be bound to.
type Catalog struct {
	kinds []KindSpec
}

// DefaultCatalog returns the engines offered by the database picker followed
// by the generic families.
func DefaultCatalog() *Catalog {
	return &Catalog{kinds: []KindSpec{
		{Kind: "mongodb", Name: "MongoDB", Description: "NoSQL Database", Family: Document, Fields: documentFields},
		{Kind: "postgresql", Name: "PostgreSQL", Description: "SQL Database", Family: Relational, Fields: relationalFields},
		{Kind: "mysql", Name: "MySQL", Description: "SQL Database", Family: Relational, Fields: relationalFields},
		{Kind: "firebase", Name: "Firebase", Description: "NoSQL Cloud Database", Family: DocumentCloud, Fields: documentCloudFields},
		{Kind: "supabase", Name: "Supabase", Description: "Open Source Firebase Alternative", Family: DocumentCloudAlt, Fields: documentCloudAltFields},
		{Kind: Relational, Name: "Relational", Description: "Postgres/MySQL-like", Family: Relational, Fields: relationalFields},
		{Kind: Document, Name: "Document", Description: "Mongo-like", Family: Document, Fields: documentFields},
		{Kind: DocumentCloud, Name: "Document Cloud", Description: "Firebase-like", Family: DocumentCloud, Fields: documentCloudFields},
		{Kind: DocumentCloudAlt, Name: "Document Cloud (alt)", Description: "Supabase-like", Family: DocumentCloudAlt, Fields: documentCloudAltFields},
	}}
}

// Kinds returns every entry in catalog order.
func (c *Catalog) Kinds() []KindSpec {
	return slices.Clone(c.kinds)
}

// Lookup finds a kind by name, ignoring case.
func (c *Catalog) Lookup(kind model.Kind) (KindSpec, bool) {
	want := strings.ToLower(strings.TrimSpace(string(kind)))
	for _, k := range c.kinds {
		if string(k.Kind) == want {
			return k, true
		}
	}
	return KindSpec{}, false
}

// Search returns the entries whose display name contains q, ignoring case.
// An empty q returns everything.
func (c *Catalog) Search(q string) []KindSpec {
	fold := cases.Fold()
	needle := fold.String(q)
	out := []KindSpec{}
	for _, k := range c.kinds {
		if strings.Contains(fold.String(k.Name), needle) {
			out = append(out, k)
		}
	}
	return out
}
