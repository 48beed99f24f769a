package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/robobar/plcbridge"
)

// @title plcbridge HTTP/WebSocket API
// @version 1.0
// @description REST API for the RoboBar drink machine PLC over OPC-UA
// @description
// @description ## Features
// @description - Drink catalogue, order queue and pickup slot state
// @description - Drinks in preparation on both sides and the PLC clock
// @description - Order submission with PLC acknowledgement
// @description - WebSocket streaming of queue, pickup, preparation and clock changes
//
// @contact.name plcbridge
//
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
//
// @host localhost:8080
// @BasePath /
// @schemes http https
//
// @tag.name drinks
// @tag.description Drink catalogue and machine state
// @tag.name orders
// @tag.description Order submission and acknowledgement
// @tag.name system
// @tag.description Health and info endpoints

// Handler contains HTTP request handlers
type Handler struct {
	middleware *Middleware
	upgrader   *websocket.Upgrader
}

// NewHandler creates a new handler
func NewHandler(middleware *Middleware) *Handler {
	return &Handler{
		middleware: middleware,
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // browsers on the bar's kiosks are served from other origins
			},
		},
	}
}

// requestContext tags library logs with the chi request id.
func requestContext(r *http.Request) *http.Request {
	if id := chimiddleware.GetReqID(r.Context()); id != "" {
		return r.WithContext(plcbridge.ContextWithLogFields(r.Context(), "request_id", id))
	}
	return r
}

// HandleDrinkTypes handles GET /DrinkTypes/
// @Summary List drink types
// @Description Read the drink catalogue configured in the PLC
// @Tags drinks
// @Produce json
// @Success 200 {object} DrinkTypesResponse
// @Failure 502 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /DrinkTypes/ [get]
func (h *Handler) HandleDrinkTypes(w http.ResponseWriter, r *http.Request) {
	r = requestContext(r)
	result, err := h.middleware.GetDrinkTypes(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// HandleQueueState handles GET /QueueState/
// @Summary Read order queue
// @Description Read the queued orders, oldest first
// @Tags drinks
// @Produce json
// @Success 200 {object} QueueStateResponse
// @Failure 502 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /QueueState/ [get]
func (h *Handler) HandleQueueState(w http.ResponseWriter, r *http.Request) {
	r = requestContext(r)
	result, err := h.middleware.GetQueueState(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// HandlePickupDrinks handles GET /PickUpDrinksState/
// @Summary Read pickup slots
// @Description Read the drinks waiting in pickup slots, keyed by slot number
// @Tags drinks
// @Produce json
// @Success 200 {object} PickupDrinksResponse
// @Failure 502 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /PickUpDrinksState/ [get]
func (h *Handler) HandlePickupDrinks(w http.ResponseWriter, r *http.Request) {
	r = requestContext(r)
	result, err := h.middleware.GetPickupDrinks(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// HandleDrinkInProgress handles GET /DrinkInProgress/{side}/
// @Summary Read drink in preparation
// @Description Read the drink being prepared on the left (0) or right (1) side
// @Tags drinks
// @Produce json
// @Param side path int true "Preparation side" Enums(0, 1)
// @Success 200 {object} DrinkInProgressResponse
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /DrinkInProgress/{side}/ [get]
func (h *Handler) HandleDrinkInProgress(w http.ResponseWriter, r *http.Request) {
	r = requestContext(r)
	side, err := strconv.Atoi(chi.URLParam(r, "side"))
	if err != nil {
		WriteError(w, NewInvalidRequestError("side must be 0 or 1"))
		return
	}

	result, err := h.middleware.GetDrinkInProgress(r.Context(), plcbridge.Side(side))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// HandlePLCTime handles GET /PlcCurrentTime/
// @Summary Read PLC clock
// @Description Read the PLC local time as YYYY-MM-DD-hh-mm-ss
// @Tags drinks
// @Produce json
// @Success 200 {object} PLCTimeResponse
// @Failure 502 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /PlcCurrentTime/ [get]
func (h *Handler) HandlePLCTime(w http.ResponseWriter, r *http.Request) {
	r = requestContext(r)
	result, err := h.middleware.GetPLCTime(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// HandleOrderStatus handles GET /NewOrderStatus/
// @Summary Read last order acknowledgement
// @Description Read whether the most recent order was accepted, without pushing a new one
// @Tags orders
// @Produce json
// @Success 200 {object} NewOrderStatusResponse
// @Failure 502 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /NewOrderStatus/ [get]
func (h *Handler) HandleOrderStatus(w http.ResponseWriter, r *http.Request) {
	r = requestContext(r)
	result, err := h.middleware.GetOrderStatus(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// HandleNewDrink handles POST /NewDrinkInQueue/
// @Summary Order a drink
// @Description Push a new order to the PLC and wait for its acknowledgement.
// @Description A timeout does not withdraw the order; the PLC may still accept it.
// @Tags orders
// @Accept json
// @Produce json
// @Param body body NewDrinkRequest true "Order"
// @Success 200 {object} NewOrderStatusResponse
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Failure 504 {object} ErrorResponse
// @Router /NewDrinkInQueue/ [post]
func (h *Handler) HandleNewDrink(w http.ResponseWriter, r *http.Request) {
	r = requestContext(r)

	var req NewDrinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid JSON body"))
		return
	}

	order, err := req.OrderRequest()
	if err != nil {
		WriteError(w, err)
		return
	}

	result, err := h.middleware.PushNewDrink(r.Context(), order)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// HandleHealth handles GET /api/v1/health
// @Summary Health check
// @Description Report whether the PLC session is connected
// @Tags system
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /api/v1/health [get]
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.middleware.GetHealth())
}

// HandleInfo handles GET /api/v1/info
// @Summary Server info
// @Description Get the PLC endpoint, session state, uptime and metrics
// @Tags system
// @Produce json
// @Success 200 {object} InfoResponse
// @Router /api/v1/info [get]
func (h *Handler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.middleware.GetInfo())
}

// HandleGetVersion handles GET /api/v1/version
// @Summary Get bridge version
// @Description Retrieve the bridge version and build information
// @Tags system
// @Produce json
// @Success 200 {object} VersionResponse
// @Router /api/v1/version [get]
func (h *Handler) HandleGetVersion(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.middleware.GetVersion())
}

// HandleWebSocket handles WebSocket connections for live machine state
// @Summary WebSocket stream
// @Description Subscribe to queue, pickup, inProgress:0, inProgress:1 and plcTime updates
// @Tags system
// @Success 101 {string} string "Switching Protocols"
// @Router /ws/subscribe [get]
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.middleware.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	h.middleware.HandleWebSocket(conn)
}
