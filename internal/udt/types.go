// Package udt declares the PLC user-defined types read by the bridge.
//
// Field order and widths follow the UDT declarations in the PLC program:
// the OPC-UA structure encoding is positional, so reordering a field here
// breaks decoding. DATE_AND_TIME members arrive as byte arrays.
package udt

// DrinkParameters is the "parameters" member of DrinkType.
type DrinkParameters struct {
	ShowParameters bool
	CoffeeStrength int16
	VolumeInMl     int16
	MilkPercentage int16
}

// DrinkType is one entry of Drink_DB.drinkTypes.
type DrinkType struct {
	DrinkName       string
	DrinkEnabled    bool
	PostmixDrink    string
	ConveyorDrink   string
	CoffeeDrink     string
	IceOption       bool
	VolumeOption    bool
	Parameters      DrinkParameters
	PreparationTime int32 // TIME, milliseconds
}

// QueueItem is one slot of Drink_DB.drinkQueue.items.
type QueueItem struct {
	OrderID     int16
	DrinkTypeID int16
	PrepStartAt []byte
}

// PickupDrink is one slot of Drink_DB.pickUpDrinks.
type PickupDrink struct {
	OrderID     int16
	DrinkTypeID int16
	PrepStartAt []byte
	PickedUp    bool
}

// PrepDrink is the drink a robot arm is currently preparing.
type PrepDrink struct {
	OrderID     int16
	DrinkTypeID int16
	PrepStartAt []byte
	PrepDoneAt  []byte
}
