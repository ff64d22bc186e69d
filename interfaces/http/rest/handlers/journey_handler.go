package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"prepcoach/application/commands"
	"prepcoach/application/queries"
	"prepcoach/domain/core/valueobjects"
)

// JourneyHandler serves the journey catalogue, progress and search endpoints
type JourneyHandler struct {
	Base
}

// NewJourneyHandler creates a journey handler
func NewJourneyHandler(base Base) *JourneyHandler {
	return &JourneyHandler{Base: base}
}

func journeyID(r *http.Request) valueobjects.JourneyID {
	return valueobjects.JourneyID(chi.URLParam(r, "journeyID"))
}

func nodeID(r *http.Request) valueobjects.NodeID {
	return valueobjects.NodeID(chi.URLParam(r, "nodeID"))
}

// ListJourneys handles GET /journeys
func (h *JourneyHandler) ListJourneys(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.ListJourneysQuery{
		Actor: actorFrom(r),
		Kind:  valueobjects.JourneyKind(r.URL.Query().Get("kind")),
	})
}

// GetJourney handles GET /journeys/{journeyID}
func (h *JourneyHandler) GetJourney(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.GetJourneyQuery{Actor: actorFrom(r), JourneyID: journeyID(r)})
}

// CreateJourney handles POST /journeys
func (h *JourneyHandler) CreateJourney(w http.ResponseWriter, r *http.Request) {
	var cmd commands.CreateJourneyCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	cmd.Actor = actorFrom(r)
	h.send(w, r, http.StatusCreated, cmd)
}

// AddNode handles POST /journeys/{journeyID}/nodes
func (h *JourneyHandler) AddNode(w http.ResponseWriter, r *http.Request) {
	var cmd commands.AddNodeCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	cmd.Actor = actorFrom(r)
	cmd.JourneyID = journeyID(r)
	h.send(w, r, http.StatusCreated, cmd)
}

// ConnectNodes handles POST /journeys/{journeyID}/edges
func (h *JourneyHandler) ConnectNodes(w http.ResponseWriter, r *http.Request) {
	var cmd commands.ConnectNodesCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	cmd.Actor = actorFrom(r)
	cmd.JourneyID = journeyID(r)
	h.send(w, r, http.StatusCreated, cmd)
}

// Search handles GET /search?q=&journey_id=&limit=
func (h *JourneyHandler) Search(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	limit := 0
	if raw := params.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			n = -1
		}
		limit = n
	}
	h.ask(w, r, queries.SearchRoadmapQuery{
		Actor:     actorFrom(r),
		Query:     params.Get("q"),
		JourneyID: valueobjects.JourneyID(params.Get("journey_id")),
		Limit:     limit,
	})
}

// StartJourney handles POST /journeys/{journeyID}/start
func (h *JourneyHandler) StartJourney(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, http.StatusOK, commands.StartJourneyCommand{Actor: actorFrom(r), JourneyID: journeyID(r)})
}

// StartNode handles POST /journeys/{journeyID}/nodes/{nodeID}/start
func (h *JourneyHandler) StartNode(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, http.StatusOK, commands.StartNodeCommand{
		Actor:     actorFrom(r),
		JourneyID: journeyID(r),
		NodeID:    nodeID(r),
	})
}

// CompleteNode handles POST /journeys/{journeyID}/nodes/{nodeID}/complete
func (h *JourneyHandler) CompleteNode(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, http.StatusOK, commands.CompleteNodeCommand{
		Actor:     actorFrom(r),
		JourneyID: journeyID(r),
		NodeID:    nodeID(r),
	})
}

// GetProgress handles GET /journeys/{journeyID}/progress
func (h *JourneyHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.GetProgressQuery{Actor: actorFrom(r), JourneyID: journeyID(r)})
}

// ListProgress handles GET /progress
func (h *JourneyHandler) ListProgress(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.ListProgressQuery{Actor: actorFrom(r)})
}
