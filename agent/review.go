package agent

import (
	"strings"

	"github.com/tbxark/charterflow/catalog"
	"github.com/tbxark/charterflow/guided"
)

const nothingCaptured = "Nothing captured yet."

// reviewSummary partitions the fields into confirmed, skipped and, while the
// session is open, in progress. Empty groups are left out.
func reviewSummary(cat *catalog.Catalog, state guided.State) string {
	var confirmed, skipped, inProgress []string
	for _, id := range state.Order {
		f := state.Fields[id]
		label := cat.Label(id)
		switch {
		case f.Status == guided.FieldConfirmed:
			confirmed = append(confirmed, label)
		case f.Status == guided.FieldSkipped:
			skipped = append(skipped, label)
		case state.Complete():
		case f.Status == guided.FieldCaptured || f.Status == guided.FieldRejected || !f.Value.IsEmpty():
			inProgress = append(inProgress, label)
		}
	}
	var lines []string
	if len(confirmed) > 0 {
		lines = append(lines, "Confirmed: "+joinOxford(confirmed)+".")
	}
	if len(skipped) > 0 {
		lines = append(lines, "Skipped: "+joinOxford(skipped)+".")
	}
	if len(inProgress) > 0 {
		lines = append(lines, "In progress: "+joinOxford(inProgress)+".")
	}
	if len(lines) == 0 {
		return nothingCaptured
	}
	return strings.Join(lines, "\n")
}

// joinOxford joins items as "a", "a and b" or "a, b, and c".
func joinOxford(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
	}
}
