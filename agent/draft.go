package agent

import (
	"github.com/bytedance/sonic"
	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/rotisserie/eris"

	"github.com/tbxark/charterflow/guided"
)

// ToDocumentDTO maps every confirmed field to its plain value. Fields in any
// other status are left out.
func ToDocumentDTO(state guided.State) map[string]any {
	out := make(map[string]any)
	for _, id := range state.Order {
		f, ok := state.Fields[id]
		if !ok || f.Status != guided.FieldConfirmed || f.ConfirmedValue.IsZero() {
			continue
		}
		out[id] = f.ConfirmedValue.Interface()
	}
	return out
}

// mergeSeed overlays the confirmed values on draft as an RFC 7386 merge
// patch, so a confirmed answer always wins over the draft.
func mergeSeed(draft map[string]any, state guided.State) (map[string]any, error) {
	confirmed := ToDocumentDTO(state)
	if len(draft) == 0 {
		return confirmed, nil
	}
	base, err := sonic.Marshal(draft)
	if err != nil {
		return nil, eris.Wrap(err, "agent: encode draft")
	}
	patch, err := sonic.Marshal(confirmed)
	if err != nil {
		return nil, eris.Wrap(err, "agent: encode confirmed fields")
	}
	merged, err := jsonpatch.MergePatch(base, patch)
	if err != nil {
		return nil, eris.Wrap(err, "agent: merge draft")
	}
	var out map[string]any
	if err := sonic.Unmarshal(merged, &out); err != nil {
		return nil, eris.Wrap(err, "agent: decode seed")
	}
	return out, nil
}
