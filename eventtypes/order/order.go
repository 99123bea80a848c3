package order

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gct-backtester/common"
)

// namespace seeds deterministic order ids so identical runs produce
// identical ids
var namespace = uuid.NewV5(uuid.NamespaceOID, "gct-backtester/order")

// GenerateID returns a deterministic id for the nth order of a run
func GenerateID(instrument string, t time.Time, sequence int64) string {
	return uuid.NewV5(namespace, instrument+"|"+t.UTC().Format(time.RFC3339Nano)+"|"+strconv.FormatInt(sequence, 10)).String()
}

// Kind returns the event kind
func (o *Order) Kind() common.Kind {
	return common.OrderKind
}

// GetID returns the ID
func (o *Order) GetID() string {
	return o.ID
}

// GetSide returns the side of the order
func (o *Order) GetSide() common.Side {
	return o.Side
}

// GetQuantity returns the unsigned amount to trade
func (o *Order) GetQuantity() decimal.Decimal {
	return o.Quantity
}

// GetOrderType returns whether the order is a market or limit order
func (o *Order) GetOrderType() common.OrderType {
	return o.OrderType
}

// GetLimitPrice returns the limit price
func (o *Order) GetLimitPrice() decimal.Decimal {
	return o.LimitPrice
}

// GetReferencePrice returns the close of the bar the order was sized against
func (o *Order) GetReferencePrice() decimal.Decimal {
	return o.ReferencePrice
}

// Validate ensures an order can be handed to an execution handler
func Validate(o Event) error {
	if o == nil {
		return common.ErrNilEvent
	}
	if o.GetID() == "" {
		return errMissingID
	}
	if err := o.GetSide().Validate(); err != nil {
		return err
	}
	if !o.GetQuantity().IsPositive() {
		return fmt.Errorf("%w received %v", errInvalidQuantity, o.GetQuantity())
	}
	switch o.GetOrderType() {
	case common.Market:
	case common.Limit:
		if !o.GetLimitPrice().IsPositive() {
			return fmt.Errorf("%w received %v", errInvalidLimitPrice, o.GetLimitPrice())
		}
	default:
		return fmt.Errorf("%w '%v'", errInvalidOrderType, o.GetOrderType())
	}
	return nil
}
