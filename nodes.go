package plcbridge

// Node paths of the drink machine program. Drink_DB holds machine state,
// Web_Terminal_Communication is the order handshake with the terminal.
const (
	NodeQueueItems      = `ns=3;s="Drink_DB"."drinkQueue"."items"`
	NodeQueueFirstIndex = `ns=3;s="Drink_DB"."drinkQueue"."firstItemIndex"`
	NodeQueueLastIndex  = `ns=3;s="Drink_DB"."drinkQueue"."lastItemIndex"`
	NodeQueueLength     = `ns=3;s="Drink_DB"."drinkQueue"."currentQueueLength"`
	NodeQueueReadIndex  = `ns=3;s="Drink_DB"."drinkQueue"."readIndex"`

	NodeDrinkTypes   = `ns=3;s="Drink_DB"."drinkTypes"`
	NodePickupDrinks = `ns=3;s="Drink_DB"."pickUpDrinks"`

	NodeLeftPrepDrink    = `ns=3;s="Drink_DB"."leftPrepDrink"`
	NodeLeftPrepStartAt  = `ns=3;s="Drink_DB"."leftPrepDrink"."prepStartAt"`
	NodeLeftPrepDoneAt   = `ns=3;s="Drink_DB"."leftPrepDrink"."prepDoneAt"`
	NodeRightPrepDrink   = `ns=3;s="Drink_DB"."rightPrepDrink"`
	NodeRightPrepStartAt = `ns=3;s="Drink_DB"."rightPrepDrink"."prepStartAt"`
	NodeRightPrepDoneAt  = `ns=3;s="Drink_DB"."rightPrepDrink"."prepDoneAt"`

	NodePLCCurrentTime    = `ns=3;s="Queue_Handle_DB"."currentTime"`
	NodeServerStatusState = `i=2259`

	NodePushNewOrder        = `ns=3;s="Web_Terminal_Communication"."Terminal_Output"."pushNewOrderToQueue"`
	NodeNewOrderUseIce      = `ns=3;s="Web_Terminal_Communication"."Terminal_Output"."newOrderUseIce"`
	NodeNewOrderDrinkSizeID = `ns=3;s="Web_Terminal_Communication"."Terminal_Output"."newOrderDrinkSizeId"`
	NodeNewOrderDrinkTypeID = `ns=3;s="Web_Terminal_Communication"."Terminal_Output"."newOrderDrinkTypeId"`

	NodeOrderPushedOK      = `ns=3;s="Web_Terminal_Communication"."Terminal_Input"."orderPushedSuccessfully"`
	NodeSuccessOrderNumber = `ns=3;s="Web_Terminal_Communication"."Terminal_Input"."successOrderNumber"`
)

// RequiredNodes lists every path resolved when a session is established.
// A missing node fails the connection attempt.
func RequiredNodes() []string {
	return []string{
		NodeQueueItems, NodeQueueFirstIndex, NodeQueueLastIndex, NodeQueueLength, NodeQueueReadIndex,
		NodeDrinkTypes, NodePickupDrinks,
		NodeLeftPrepDrink, NodeLeftPrepStartAt, NodeLeftPrepDoneAt,
		NodeRightPrepDrink, NodeRightPrepStartAt, NodeRightPrepDoneAt,
		NodePLCCurrentTime, NodeServerStatusState,
		NodePushNewOrder, NodeNewOrderUseIce, NodeNewOrderDrinkSizeID, NodeNewOrderDrinkTypeID,
		NodeOrderPushedOK, NodeSuccessOrderNumber,
	}
}

// sideNodes are the struct, start and done nodes of one preparation side.
type sideNodes struct {
	drink, startAt, doneAt string
}

var prepSides = [2]sideNodes{
	{NodeLeftPrepDrink, NodeLeftPrepStartAt, NodeLeftPrepDoneAt},
	{NodeRightPrepDrink, NodeRightPrepStartAt, NodeRightPrepDoneAt},
}
