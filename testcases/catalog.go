package testcases

import (
	"github.com/tbxark/charterflow/catalog"
	"github.com/tbxark/charterflow/types"
)

// kickoffCatalog is a short charter used by the live tests.
func kickoffCatalog() *catalog.Catalog {
	return catalog.MustNew(
		types.Field{ID: "project_title", Label: "Project title", Required: true, Kind: types.KindScalar, MaxLength: 80},
		types.Field{ID: "start_date", Label: "Start date", Required: true, Kind: types.KindDate},
		types.Field{ID: "objectives", Label: "Objectives", Kind: types.KindStringList},
		types.Field{ID: "stakeholders", Label: "Stakeholders", Kind: types.KindObjectList, Children: []types.Field{
			{ID: "name", Label: "Name", Kind: types.KindScalar},
			{ID: "role", Label: "Role", Kind: types.KindScalar},
		}},
	)
}
