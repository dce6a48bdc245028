package enums

import "fmt"

// DeliveryMethod is how the order is settled. There is no payment capture;
// cash on delivery is the only method today.
type DeliveryMethod string

const (
	DeliveryMethodCashOnDelivery DeliveryMethod = "Cash on Delivery"
)

var validDeliveryMethods = []DeliveryMethod{
	DeliveryMethodCashOnDelivery,
}

// String implements fmt.Stringer.
func (d DeliveryMethod) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeliveryMethod.
func (d DeliveryMethod) IsValid() bool {
	for _, candidate := range validDeliveryMethods {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeliveryMethod converts raw input into a DeliveryMethod.
func ParseDeliveryMethod(value string) (DeliveryMethod, error) {
	for _, candidate := range validDeliveryMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery method %q", value)
}
