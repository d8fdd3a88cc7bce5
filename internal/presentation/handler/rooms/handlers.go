package rooms

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/virtualclassroom/backend/internal/domain"
	"github.com/virtualclassroom/backend/internal/infrastructure/json"
	"github.com/virtualclassroom/backend/internal/infrastructure/profanity"
	"github.com/virtualclassroom/backend/internal/presentation/auth"
)

type Handler struct {
	roomRepository  domain.RoomRepository
	profanityFilter *profanity.Filter
}

func NewHandler(roomRepository domain.RoomRepository, profanityFilter *profanity.Filter) *Handler {
	return &Handler{
		roomRepository:  roomRepository,
		profanityFilter: profanityFilter,
	}
}

// CreateRoomHandler godoc
// @Summary      Create a conference room
// @Description  Creates a room record; its id is the rendezvous string clients pass to the signaling endpoint
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        request body createRoomRequest true "Room creation parameters"
// @Success      201 {object} roomResponse "Room created"
// @Failure      400 {object} map[string]interface{} "Bad request - validation error"
// @Failure      401 {object} map[string]interface{} "Unauthorized"
// @Failure      500 {object} map[string]interface{} "Internal server error"
// @Security     BearerAuth
// @Router       /rooms [post]
func (h *Handler) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		json.WriteUnauthorizedError(w, "Missing or invalid authentication")
		return
	}

	if h.profanityFilter.Contains(req.RoomName) {
		json.WriteBadRequestError(w, "Room name contains inappropriate language")
		return
	}

	room, err := domain.NewRoom(req.RoomName, claims.UserID)
	if err != nil {
		json.WriteValidationError(w, err)
		return
	}

	if err := h.roomRepository.Create(r.Context(), room); err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomAlreadyExists):
			json.WriteError(w, http.StatusConflict, err, "Room already exists")
		default:
			log.Printf("Repository error creating room %s: %v", room.ID, err)
			json.WriteInternalError(w, err)
		}
		return
	}

	json.Write(w, http.StatusCreated, toRoomResponse(room))
}

// ListRoomsHandler godoc
// @Summary      List conference rooms
// @Tags         rooms
// @Produce      json
// @Success      200 {object} listRoomsResponse "Rooms, newest first"
// @Failure      401 {object} map[string]interface{} "Unauthorized"
// @Failure      500 {object} map[string]interface{} "Internal server error"
// @Security     BearerAuth
// @Router       /rooms [get]
func (h *Handler) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.roomRepository.List(r.Context())
	if err != nil {
		json.WriteInternalError(w, err)
		return
	}

	resp := listRoomsResponse{Rooms: make([]roomResponse, 0, len(rooms))}
	for i := range rooms {
		resp.Rooms = append(resp.Rooms, toRoomResponse(&rooms[i]))
	}

	json.Write(w, http.StatusOK, resp)
}

// GetRoomHandler godoc
// @Summary      Get one conference room
// @Tags         rooms
// @Produce      json
// @Param        roomId path string true "Room ID"
// @Success      200 {object} roomResponse "Room details"
// @Failure      400 {object} map[string]interface{} "Bad request - missing room ID"
// @Failure      401 {object} map[string]interface{} "Unauthorized"
// @Failure      404 {object} map[string]interface{} "Room not found"
// @Failure      500 {object} map[string]interface{} "Internal server error"
// @Security     BearerAuth
// @Router       /rooms/{roomId} [get]
func (h *Handler) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	if roomID == "" {
		json.WriteValidationError(w, errors.New("room ID is missing"))
		return
	}

	room, err := h.roomRepository.GetByID(r.Context(), roomID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomNotFound):
			json.WriteError(w, http.StatusNotFound, err, "Room not found")
		default:
			log.Printf("Repository error fetching room %s: %v", roomID, err)
			json.WriteInternalError(w, err)
		}
		return
	}

	json.Write(w, http.StatusOK, toRoomResponse(room))
}

// DeleteRoomHandler godoc
// @Summary      Delete a conference room
// @Description  Removes the room record (host or admin only); ongoing signaling sessions are unaffected
// @Tags         rooms
// @Produce      json
// @Param        roomId path string true "Room ID"
// @Success      204 "Room deleted"
// @Failure      400 {object} map[string]interface{} "Bad request - missing room ID"
// @Failure      401 {object} map[string]interface{} "Unauthorized - not host or admin"
// @Failure      404 {object} map[string]interface{} "Room not found"
// @Failure      500 {object} map[string]interface{} "Internal server error"
// @Security     BearerAuth
// @Router       /rooms/{roomId} [delete]
func (h *Handler) DeleteRoomHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	if roomID == "" {
		json.WriteValidationError(w, errors.New("room ID is missing"))
		return
	}

	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		json.WriteUnauthorizedError(w, "Missing or invalid authentication")
		return
	}

	room, err := h.roomRepository.GetByID(r.Context(), roomID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomNotFound):
			json.WriteError(w, http.StatusNotFound, err, "Room not found")
		default:
			log.Printf("Repository error fetching room %s: %v", roomID, err)
			json.WriteInternalError(w, err)
		}
		return
	}

	if room.HostID != claims.UserID && claims.Role != domain.RoleAdmin {
		json.WriteUnauthorizedError(w, "Only the host can delete this room")
		return
	}

	if err := h.roomRepository.Delete(r.Context(), roomID); err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			json.WriteError(w, http.StatusNotFound, err, "Room not found")
			return
		}
		json.WriteInternalError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toRoomResponse(room *domain.Room) roomResponse {
	return roomResponse{
		RoomID:    room.ID,
		RoomName:  room.Title,
		HostID:    room.HostID,
		CreatedAt: room.CreatedAt,
	}
}
