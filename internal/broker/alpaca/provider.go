// Package alpaca implements the broker interface against the Alpaca
// trading API, mapping SDK types into our generic models.
package alpaca

import (
	"fmt"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"

	"github.com/joshwigginton/composer-signals-alpaca/internal/broker"
	"github.com/joshwigginton/composer-signals-alpaca/internal/models"
)

// Provider implements broker.Broker for Alpaca.
type Provider struct {
	mdClient    *marketdata.Client
	tradeClient *alpaca.Client
}

// Ensure Provider implements the interface
var _ broker.Broker = (*Provider)(nil)

// Opts holds the credentials for the Alpaca clients.
type Opts struct {
	APIKey    string
	APISecret string
	BaseURL   string
}

// NewProvider returns a new Alpaca provider. BaseURL selects paper vs live
// trading; market data always goes to the data endpoint.
func NewProvider(opts Opts) *Provider {
	return &Provider{
		mdClient: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    opts.APIKey,
			APISecret: opts.APISecret,
		}),
		tradeClient: alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    opts.APIKey,
			APISecret: opts.APISecret,
			BaseURL:   opts.BaseURL,
		}),
	}
}

func (p *Provider) GetEquity() (decimal.Decimal, error) {
	acct, err := p.tradeClient.GetAccount()
	if err != nil {
		return decimal.Zero, err
	}
	return acct.Equity, nil
}

func (p *Provider) GetClock() (*models.Clock, error) {
	c, err := p.tradeClient.GetClock()
	if err != nil {
		return nil, err
	}
	return &models.Clock{
		Timestamp: c.Timestamp,
		IsOpen:    c.IsOpen,
		NextOpen:  c.NextOpen,
		NextClose: c.NextClose,
	}, nil
}

func (p *Provider) ListPositions() (models.Snapshot, error) {
	positions, err := p.tradeClient.GetPositions()
	if err != nil {
		return nil, err
	}

	snapshot := make(models.Snapshot, len(positions))
	for _, x := range positions {
		marketValue := decimal.Zero
		if x.MarketValue != nil {
			marketValue = *x.MarketValue
		}
		snapshot[x.Symbol] = models.Position{
			Symbol:      x.Symbol,
			Qty:         x.Qty,
			MarketValue: marketValue,
		}
	}
	return snapshot, nil
}

func (p *Provider) GetLatestPrice(symbol string) (decimal.Decimal, error) {
	trade, err := p.mdClient.GetLatestTrade(symbol, marketdata.GetLatestTradeRequest{})
	if err != nil {
		return decimal.Zero, err
	}
	if trade == nil {
		return decimal.Zero, fmt.Errorf("alpaca: no trade found for %s", symbol)
	}
	return decimal.NewFromFloat(trade.Price), nil
}

func (p *Provider) GetAsset(symbol string) (*models.Asset, error) {
	a, err := p.tradeClient.GetAsset(symbol)
	if err != nil {
		return nil, err
	}
	return &models.Asset{
		Symbol:       a.Symbol,
		Name:         a.Name,
		Tradable:     a.Tradable,
		Fractionable: a.Fractionable,
	}, nil
}

// SubmitOrder places a day market order, the only order type the
// rebalancer uses.
func (p *Provider) SubmitOrder(symbol string, qty decimal.Decimal, side models.Side, clientOrderID string) (*models.Order, error) {
	o, err := p.tradeClient.PlaceOrder(alpaca.PlaceOrderRequest{
		Symbol:        symbol,
		Qty:           &qty,
		Side:          alpaca.Side(side),
		Type:          alpaca.Market,
		TimeInForce:   alpaca.Day,
		ClientOrderID: clientOrderID,
	})
	if err != nil {
		return nil, err
	}
	return mapOrder(o), nil
}

func (p *Provider) GetOrderByClientOrderID(clientOrderID string) (*models.Order, error) {
	o, err := p.tradeClient.GetOrderByClientOrderID(clientOrderID)
	if err != nil {
		return nil, err
	}
	return mapOrder(o), nil
}

func mapOrder(o *alpaca.Order) *models.Order {
	if o == nil {
		return nil
	}

	qty := decimal.Zero
	if o.Qty != nil {
		qty = *o.Qty
	}
	filledAvgPrice := decimal.Zero
	if o.FilledAvgPrice != nil {
		filledAvgPrice = *o.FilledAvgPrice
	}

	res := &models.Order{
		ID:             o.ID,
		ClientOrderID:  o.ClientOrderID,
		Symbol:         o.Symbol,
		Qty:            qty,
		FilledQty:      o.FilledQty,
		Side:           models.Side(o.Side),
		Status:         o.Status,
		FilledAvgPrice: filledAvgPrice,
		CreatedAt:      o.CreatedAt,
	}
	if o.FilledAt != nil {
		res.FilledAt = o.FilledAt
	}
	return res
}
