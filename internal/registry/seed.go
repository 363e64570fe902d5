package registry

import (
	"hash/fnv"

	"github.com/roach88/dbsim/internal/model"
)

// Palette is the set of card colours assigned to projects.
var Palette = []string{
	"bg-blue-100 dark:bg-blue-900 text-blue-900 dark:text-blue-100",
	"bg-green-100 dark:bg-green-900 text-green-900 dark:text-green-100",
	"bg-orange-100 dark:bg-orange-900 text-orange-900 dark:text-orange-100",
	"bg-purple-100 dark:bg-purple-900 text-purple-900 dark:text-purple-100",
	"bg-pink-100 dark:bg-pink-900 text-pink-900 dark:text-pink-100",
}

// ColorFor picks a palette entry from the id, so the same id always gets
// the same colour.
func ColorFor(id string) string {
	h := fnv.New32a()
	h.Write([]byte(id))
	return Palette[h.Sum32()%uint32(len(Palette))]
}

// DemoProjects returns the projects a fresh store is seeded with.
func DemoProjects() []model.Project {
	return []model.Project{
		{ID: "1", Name: "E-commerce Database", Kind: "postgresql", CreatedAt: model.MustDay("2024-02-20"), Color: Palette[0]},
		{ID: "2", Name: "User Analytics", Kind: "mongodb", CreatedAt: model.MustDay("2024-02-21"), Color: Palette[1]},
		{ID: "3", Name: "Inventory System", Kind: "mysql", CreatedAt: model.MustDay("2024-02-22"), Color: Palette[2]},
		{ID: "4", Name: "Blog CMS", Kind: "mongodb", CreatedAt: model.MustDay("2024-02-23"), Color: Palette[3]},
		{ID: "5", Name: "Customer Support Tickets", Kind: "postgresql", CreatedAt: model.MustDay("2024-02-24"), Color: Palette[4]},
	}
}
