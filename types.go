package plcbridge

import (
	"fmt"

	"github.com/robobar/plcbridge/internal/plctime"
)

// Timestamp is a PLC DATE_AND_TIME value. It marshals as "YYYY-MM-DD-hh-mm-ss".
type Timestamp = plctime.Timestamp

// DrinkGroups classifies a drink type. A drink may belong to several groups.
type DrinkGroups struct {
	Soft    bool `json:"soft"`
	Alcohol bool `json:"alcohol"`
	Coffee  bool `json:"coffee"`
}

// DrinkParameters are the user-tunable parameters of a drink type.
type DrinkParameters struct {
	ShowParameters bool `json:"showParameters"`
	CoffeeStrength int  `json:"coffeeStrength"`
	VolumeInMl     int  `json:"volumeInMl"`
	MilkPercentage int  `json:"milkPercentage"`
}

// DrinkType is one entry of the drink catalog. ID is the array index on the PLC.
type DrinkType struct {
	ID              int             `json:"id"`
	Name            string          `json:"name"`
	Enabled         bool            `json:"enabled"`
	Groups          DrinkGroups     `json:"drinkGroups"`
	IceOption       bool            `json:"iceOption"`
	VolumeOption    bool            `json:"volumeOption"`
	Parameters      DrinkParameters `json:"parameters"`
	PrepTimeSeconds float64         `json:"prepTimeInSeconds"`
}

// QueueEntry is an order waiting in the drink queue.
type QueueEntry struct {
	OrderID       int        `json:"drinkOrderId"`
	DrinkTypeID   int        `json:"drinkTypeId"`
	PrepStartedAt *Timestamp `json:"prepStartedAt"`
}

// PickupDrink is a finished drink waiting in a pickup slot.
type PickupDrink struct {
	OrderID       int        `json:"drinkOrderId"`
	DrinkTypeID   int        `json:"drinkTypeId"`
	PrepStartedAt *Timestamp `json:"prepStartedAt"`
}

// DrinkInProgress is the drink being prepared on one side of the machine.
// The timestamps are nil while the PLC holds the zero date.
type DrinkInProgress struct {
	OrderID       int        `json:"drinkOrderId"`
	DrinkTypeID   int        `json:"drinkTypeId"`
	PrepStartedAt *Timestamp `json:"prepStartedAt"`
	PrepDoneAt    *Timestamp `json:"prepDoneAt"`
}

// Side selects one preparation station.
type Side int

const (
	SideLeft  Side = 0
	SideRight Side = 1
)

func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	default:
		return fmt.Sprintf("side(%d)", int(s))
	}
}

func (s Side) valid() bool {
	return s == SideLeft || s == SideRight
}

// Drink sizes understood by the PLC.
const (
	DrinkSizeRegular = 1
	DrinkSizeLarge   = 2
)

// MaxOrderField is the largest value a 16-bit order field accepts.
const MaxOrderField = 32767

// OrderRequest is a new drink order.
type OrderRequest struct {
	DrinkTypeID int
	UseIce      bool
	DrinkSize   int
}

// Validate checks the request against the PLC field ranges.
func (r OrderRequest) Validate() error {
	if r.DrinkTypeID < 0 || r.DrinkTypeID > MaxOrderField {
		return fmt.Errorf("drink type id %d out of range [0, %d]", r.DrinkTypeID, MaxOrderField)
	}
	if r.DrinkSize < 1 || r.DrinkSize > MaxOrderField {
		return fmt.Errorf("drink size %d out of range [1, %d]", r.DrinkSize, MaxOrderField)
	}
	return nil
}

// OrderResult is the PLC's answer to the most recent order.
// AssignedOrderNumber is the PLC's successOrderNumber as read. It is only
// meaningful when Accepted; after a rejection it holds a previous order's number.
type OrderResult struct {
	Accepted            bool `json:"orderPushedSuccessfully"`
	AssignedOrderNumber *int `json:"pushedOrderNumber"`
}
