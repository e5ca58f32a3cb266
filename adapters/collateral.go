package adapters

import (
	"context"

	"github.com/indexnet/gateway/decimal"
	"github.com/indexnet/gateway/selection"
)

// NoopCollateralBroker never requires a receipt and never needs topping
// up. It is the collateral broker for deployments that charge no fee,
// where CreateTransfer's receipt has nothing to attest; it returns an
// empty receipt whatever the fee.
type NoopCollateralBroker struct{}

// CreateTransfer implements queryengine.CollateralBroker.
func (NoopCollateralBroker) CreateTransfer(ctx context.Context, idx selection.Indexing, fee decimal.Decimal) (string, error) {
	return "", nil
}

// TopUpCollateral implements queryengine.CollateralBroker.
func (NoopCollateralBroker) TopUpCollateral(ctx context.Context, idx selection.Indexing) error {
	return nil
}
