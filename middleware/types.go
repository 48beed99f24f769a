package middleware

import (
	"time"

	"github.com/robobar/plcbridge"
)

// DrinkTypesResponse lists the drink catalogue
type DrinkTypesResponse struct {
	StatusCode int                   `json:"statusCode"`
	DrinkTypes []plcbridge.DrinkType `json:"drinkTypes"`
}

// QueueStateResponse lists the queued orders, oldest first
type QueueStateResponse struct {
	StatusCode  int                    `json:"statusCode"`
	QueueDrinks []plcbridge.QueueEntry `json:"queueDrinks"`
}

// PickupDrinksResponse maps occupied pickup slots to their drinks
type PickupDrinksResponse struct {
	StatusCode   int                           `json:"statusCode"`
	PickupDrinks map[int]plcbridge.PickupDrink `json:"pickUpDrinks"`
}

// DrinkInProgressResponse describes the drink on one preparation side
type DrinkInProgressResponse struct {
	StatusCode      int                        `json:"statusCode"`
	DrinkInProgress *plcbridge.DrinkInProgress `json:"drinkInProgress"`
}

// PLCTimeResponse carries the PLC clock as YYYY-MM-DD-hh-mm-ss
type PLCTimeResponse struct {
	StatusCode     int    `json:"statusCode"`
	PLCCurrentTime string `json:"plcCurrentTime" example:"2024-03-15-14-30-45"`
}

// NewOrderStatusResponse reports the PLC's acknowledgement of the last order
type NewOrderStatusResponse struct {
	StatusCode     int                    `json:"statusCode"`
	NewOrderStatus *plcbridge.OrderResult `json:"newOrderStatus"`
}

// NewDrinkRequest is the body of POST /NewDrinkInQueue/
type NewDrinkRequest struct {
	DrinkID    *int       `json:"drinkId" example:"3"`
	SubChoices SubChoices `json:"subChoices"`
}

// SubChoices are the customer's options for a new drink
type SubChoices struct {
	UseIce        bool `json:"useIce" example:"true"`
	UseLargeGlass bool `json:"useLargeGlass" example:"false"`
}

// OrderRequest converts the body into a plcbridge order.
func (r NewDrinkRequest) OrderRequest() (plcbridge.OrderRequest, error) {
	if r.DrinkID == nil {
		return plcbridge.OrderRequest{}, NewInvalidRequestError("drinkId is required")
	}

	size := plcbridge.DrinkSizeRegular
	if r.SubChoices.UseLargeGlass {
		size = plcbridge.DrinkSizeLarge
	}
	return plcbridge.OrderRequest{
		DrinkTypeID: *r.DrinkID,
		UseIce:      r.SubChoices.UseIce,
		DrinkSize:   size,
	}, nil
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Connected bool      `json:"connected"`
	State     string    `json:"state"`
	LastError string    `json:"lastError,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// InfoResponse represents server and PLC connection info
type InfoResponse struct {
	Endpoint      string                     `json:"endpoint"`
	Connected     bool                       `json:"connected"`
	State         string                     `json:"state"`
	EventsEnabled bool                       `json:"eventsEnabled"`
	Subscriptions int                        `json:"subscriptions"`
	ServerUptime  string                     `json:"serverUptime"`
	Metrics       *plcbridge.MetricsSnapshot `json:"metrics,omitempty"`
}

// VersionResponse represents bridge build information
type VersionResponse struct {
	Name string `json:"name"`
	plcbridge.BuildInfo
}

// ErrorResponse represents a generic error response
type ErrorResponse struct {
	StatusCode int         `json:"statusCode"`
	Error      ErrorDetail `json:"error"`
}

// ErrorDetail contains detailed error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
