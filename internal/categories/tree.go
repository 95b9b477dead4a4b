package categories

import (
	"github.com/google/uuid"

	"github.com/swapmarket/backend/pkg/db/models"
)

// Node is one category with its nested children. The parent pointer is
// deliberately absent from the serialized form.
type Node struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	SortOrder int       `json:"sort_order"`
	IsService bool      `json:"is_service"`
	Children  []Node    `json:"children"`
}

// BuildForest groups the flat category rows into root nodes with nested
// children. Input order (sort_order, name) is preserved at every level.
// Rows whose parent is missing are treated as roots.
func BuildForest(rows []models.ListingCategory) []Node {
	known := make(map[uuid.UUID]struct{}, len(rows))
	for _, row := range rows {
		known[row.ID] = struct{}{}
	}

	childrenByParent := make(map[uuid.UUID][]models.ListingCategory)
	var roots []models.ListingCategory
	for _, row := range rows {
		if row.ParentID == nil {
			roots = append(roots, row)
			continue
		}
		if _, ok := known[*row.ParentID]; !ok {
			roots = append(roots, row)
			continue
		}
		childrenByParent[*row.ParentID] = append(childrenByParent[*row.ParentID], row)
	}

	forest := make([]Node, 0, len(roots))
	for _, root := range roots {
		forest = append(forest, buildNode(root, childrenByParent))
	}
	return forest
}

func buildNode(row models.ListingCategory, childrenByParent map[uuid.UUID][]models.ListingCategory) Node {
	node := Node{
		ID:        row.ID,
		Name:      row.Name,
		SortOrder: row.SortOrder,
		IsService: row.IsService,
		Children:  []Node{},
	}
	for _, child := range childrenByParent[row.ID] {
		node.Children = append(node.Children, buildNode(child, childrenByParent))
	}
	return node
}
