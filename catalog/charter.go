package catalog

import "github.com/tbxark/charterflow/types"

var charter = MustNew(
	types.Field{
		ID:        "project_title",
		Label:     "Project title",
		Required:  true,
		Kind:      types.KindScalar,
		MaxLength: 120,
		Help:      "A short name people will use to refer to the project.",
		Example:   "Customer Portal Relaunch",
	},
	types.Field{
		ID:        "sponsor",
		Label:     "Sponsor",
		Required:  true,
		Kind:      types.KindScalar,
		MaxLength: 120,
		Help:      "The executive who owns the budget and signs off on the charter.",
		Example:   "Dana Whitfield, VP Operations",
	},
	types.Field{
		ID:        "project_manager",
		Label:     "Project manager",
		Kind:      types.KindScalar,
		MaxLength: 120,
		Help:      "The person running the project day to day.",
	},
	types.Field{
		ID:       "start_date",
		Label:    "Start date",
		Required: true,
		Kind:     types.KindDate,
		Help:     "When work begins, as YYYY-MM-DD.",
		Example:  "2025-01-15",
	},
	types.Field{
		ID:      "end_date",
		Label:   "Target end date",
		Kind:    types.KindDate,
		Help:    "When the project is expected to finish, as YYYY-MM-DD.",
		Example: "2025-06-30",
	},
	types.Field{
		ID:        "problem_statement",
		Label:     "Problem statement",
		Required:  true,
		Kind:      types.KindScalar,
		MaxLength: 2000,
		Help:      "What problem the project solves and why it matters now.",
	},
	types.Field{
		ID:        "objectives",
		Label:     "Objectives",
		Required:  true,
		Kind:      types.KindStringList,
		MaxLength: 280,
		Help:      "Measurable outcomes the project must deliver.",
		Example:   "Cut average support response time to under 4 hours",
	},
	types.Field{
		ID:        "in_scope",
		Label:     "In scope",
		Kind:      types.KindStringList,
		MaxLength: 280,
		Help:      "Work that is explicitly included.",
	},
	types.Field{
		ID:        "out_of_scope",
		Label:     "Out of scope",
		Kind:      types.KindStringList,
		MaxLength: 280,
		Help:      "Work that is explicitly excluded.",
	},
	types.Field{
		ID:    "stakeholders",
		Label: "Stakeholders",
		Kind:  types.KindObjectList,
		Help:  "People or groups affected by the project, with their role.",
		Children: []types.Field{
			{ID: "name", Label: "Name", Kind: types.KindScalar, MaxLength: 120, Aliases: []string{"person", "stakeholder", "who"}},
			{ID: "role", Label: "Role", Kind: types.KindScalar, MaxLength: 120, Aliases: []string{"title", "responsibility", "position"}},
		},
		Example: "Priya Shah - Head of Support",
	},
	types.Field{
		ID:    "milestones",
		Label: "Milestones",
		Kind:  types.KindObjectList,
		Help:  "Key checkpoints and their due dates.",
		Children: []types.Field{
			{ID: "title", Label: "Title", Kind: types.KindScalar, MaxLength: 160, Aliases: []string{"name", "milestone", "description"}},
			{ID: "due_date", Label: "Due date", Kind: types.KindDate, Aliases: []string{"date", "due", "deadline", "target_date"}},
		},
		Example: "Beta launch - 2025-04-01",
	},
	types.Field{
		ID:        "risks",
		Label:     "Risks",
		Kind:      types.KindStringList,
		MaxLength: 280,
		Help:      "Known risks or constraints.",
	},
	types.Field{
		ID:        "success_criteria",
		Label:     "Success criteria",
		Kind:      types.KindStringList,
		MaxLength: 280,
		Help:      "How you will know the project succeeded.",
	},
	types.Field{
		ID:        "budget",
		Label:     "Budget",
		Kind:      types.KindScalar,
		MaxLength: 120,
		Help:      "Approved budget or an estimate.",
		Example:   "$250,000",
	},
)

// Charter returns the default project charter catalog.
func Charter() *Catalog {
	return charter
}
