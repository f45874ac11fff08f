package handlers

import "net/http"

type styleOption struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// ListStyles exposes the recognized style keys so clients can stay in sync
// with the catalog.
func (a *App) ListStyles(w http.ResponseWriter, r *http.Request) {
	list := a.Catalog.List()
	out := make([]styleOption, 0, len(list))
	for _, st := range list {
		out = append(out, styleOption{Key: st.Key, Label: st.Label})
	}
	a.json(w, http.StatusOK, map[string]any{"styles": out})
}
