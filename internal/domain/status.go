package domain

// OrderStatus enumerates valid lifecycle states for orders.
type OrderStatus string

const (
	// OrderStatusPending indicates the order was placed and awaits confirmation.
	OrderStatusPending OrderStatus = "Pending"
	// OrderStatusConfirmed indicates the shop has accepted the order.
	OrderStatusConfirmed OrderStatus = "Confirmed"
	// OrderStatusProcessing indicates the order is being prepared.
	OrderStatusProcessing OrderStatus = "Processing"
	// OrderStatusReadyForPickup indicates the order awaits in-store pickup.
	OrderStatusReadyForPickup OrderStatus = "Ready for Pickup"
	// OrderStatusReadyForDelivery indicates the order awaits courier handoff.
	OrderStatusReadyForDelivery OrderStatus = "Ready for Delivery"
	// OrderStatusOutForDelivery indicates a courier is carrying the order.
	OrderStatusOutForDelivery OrderStatus = "Out for Delivery"
	// OrderStatusDelivered indicates the courier reported a successful drop-off.
	OrderStatusDelivered OrderStatus = "Delivered"
	// OrderStatusFailedDelivery indicates the courier could not deliver.
	OrderStatusFailedDelivery OrderStatus = "Failed Delivery"
	// OrderStatusReturned indicates the customer sent the order back.
	OrderStatusReturned OrderStatus = "Returned"
	// OrderStatusRefund indicates a refund is being issued for a returned order.
	OrderStatusRefund OrderStatus = "Refund"
	// OrderStatusCompleted indicates the order reached its terminal successful state.
	OrderStatusCompleted OrderStatus = "Completed"
	// OrderStatusCancelled indicates the order was cancelled before completion.
	OrderStatusCancelled OrderStatus = "Cancelled"
)

var orderStatusSuccessors = map[OrderStatus][]OrderStatus{
	OrderStatusPending:          {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:        {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing:       {OrderStatusReadyForPickup, OrderStatusReadyForDelivery, OrderStatusCancelled},
	OrderStatusReadyForPickup:   {OrderStatusCompleted},
	OrderStatusReadyForDelivery: {OrderStatusOutForDelivery},
	OrderStatusOutForDelivery:   {OrderStatusDelivered, OrderStatusFailedDelivery},
	OrderStatusDelivered:        {OrderStatusCompleted, OrderStatusReturned},
	OrderStatusFailedDelivery:   {OrderStatusOutForDelivery, OrderStatusCancelled},
	OrderStatusReturned:         {OrderStatusRefund},
	OrderStatusRefund:           {OrderStatusCompleted},
	OrderStatusCompleted:        {},
	OrderStatusCancelled:        {},
}

// ValidOrderStatus reports whether the status is a known lifecycle state.
func ValidOrderStatus(status OrderStatus) bool {
	_, ok := orderStatusSuccessors[status]
	return ok
}

// CanTransition reports whether target is an allowed successor of current.
func CanTransition(current, target OrderStatus) bool {
	successors, ok := orderStatusSuccessors[current]
	if !ok {
		return false
	}
	for _, next := range successors {
		if next == target {
			return true
		}
	}
	return false
}

// Successors returns the allowed next states for the given status.
func Successors(status OrderStatus) []OrderStatus {
	successors := orderStatusSuccessors[status]
	out := make([]OrderStatus, len(successors))
	copy(out, successors)
	return out
}

// Terminal reports whether the status admits no further transitions.
func Terminal(status OrderStatus) bool {
	successors, ok := orderStatusSuccessors[status]
	return ok && len(successors) == 0
}

// RestoresInventory reports whether entering the status must put the
// order's stock back on the shelf. Restoration happens once per order:
// Refund follows Returned, which already restored.
func RestoresInventory(status OrderStatus) bool {
	switch status {
	case OrderStatusCancelled, OrderStatusReturned:
		return true
	}
	return false
}
