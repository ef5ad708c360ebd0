package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/concierge/internal/knowledge"
)

type KnowledgeHandler struct {
	kb *knowledge.Base
}

func NewKnowledgeHandler(kb *knowledge.Base) *KnowledgeHandler {
	return &KnowledgeHandler{kb: kb}
}

type amenityView struct {
	Name  string   `json:"name"`
	Slots []string `json:"slots"`
}

type communityView struct {
	Name      string        `json:"name"`
	Amenities []amenityView `json:"amenities"`
}

// ListCommunities returns every community with its amenities and slots in
// knowledge file order.
func (h *KnowledgeHandler) ListCommunities(w http.ResponseWriter, r *http.Request) {
	communities := h.kb.Communities()
	out := make([]communityView, 0, len(communities))
	for _, c := range communities {
		view := communityView{Name: c.Name, Amenities: make([]amenityView, 0, len(c.Amenities))}
		for _, a := range c.Amenities {
			slots := h.kb.Slots(c.Name, a)
			if slots == nil {
				slots = []string{}
			}
			view.Amenities = append(view.Amenities, amenityView{Name: a, Slots: slots})
		}
		out = append(out, view)
	}

	writeJSON(w, http.StatusOK, map[string]any{"communities": out})
}
