package fill

import (
	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gct-backtester/common"
)

// Kind returns the event kind
func (f *Fill) Kind() common.Kind {
	return common.FillKind
}

// GetOrderID returns the id of the order which was filled
func (f *Fill) GetOrderID() string {
	return f.OrderID
}

// GetSide returns the side of the fill
func (f *Fill) GetSide() common.Side {
	return f.Side
}

// GetQuantity returns the unsigned amount filled
func (f *Fill) GetQuantity() decimal.Decimal {
	return f.Quantity
}

// GetFillPrice returns the price the order was filled at
func (f *Fill) GetFillPrice() decimal.Decimal {
	return f.FillPrice
}

// GetCommission returns the commission charged
func (f *Fill) GetCommission() decimal.Decimal {
	return f.Commission
}

// GetSlippage returns the slippage rate applied to the fill price in basis points
func (f *Fill) GetSlippage() decimal.Decimal {
	return f.Slippage
}

// GetReferencePrice returns the price the order was sized against
func (f *Fill) GetReferencePrice() decimal.Decimal {
	return f.ReferencePrice
}

// GetNotional returns fill price multiplied by quantity
func (f *Fill) GetNotional() decimal.Decimal {
	return f.FillPrice.Mul(f.Quantity)
}
