package order

// Status is an order's lifecycle stage.
//
// The intended progression is pending, confirmed, processing, shipped,
// delivered, with cancellation possible up to shipment. The storefront has
// never enforced that graph (any status may move to any other), so updates
// only check set membership.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// ParseStatus validates a status string against the six known values.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusProcessing,
		StatusShipped, StatusDelivered, StatusCancelled:
		return Status(s), true
	default:
		return "", false
	}
}
