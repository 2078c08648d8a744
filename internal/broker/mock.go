package broker

import (
	"context"
	"sync"

	"TruthTrader/internal/model"
)

// MockBroker is a controllable in-memory brokerage for tests. Submitted buys
// and closes mutate the position book so multi-step reconciliation sees its
// own effects, the way the live account would.
type MockBroker struct {
	mu sync.Mutex

	Clock     model.Clock
	Positions map[string]float64
	Power     float64
	Prices    map[string]float64

	// Orders journals every submitted order in sequence.
	Orders []OrderRequest
	// Closed journals every closed symbol in sequence.
	Closed []string

	ClockErr  error
	OrderErr  error
	CloseErr  map[string]error
	LookupErr error
}

// NewMockBroker creates an empty mock with sane defaults.
func NewMockBroker() *MockBroker {
	return &MockBroker{
		Positions: map[string]float64{},
		Prices:    map[string]float64{},
		CloseErr:  map[string]error{},
	}
}

func (m *MockBroker) GetClock(_ context.Context) (*model.Clock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ClockErr != nil {
		return nil, m.ClockErr
	}
	c := m.Clock
	return &c, nil
}

func (m *MockBroker) GetPosition(_ context.Context, symbol string) (*model.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LookupErr != nil {
		return nil, m.LookupErr
	}
	qty, ok := m.Positions[symbol]
	if !ok || qty == 0 {
		return nil, ErrNoPosition
	}
	return &model.Position{Symbol: symbol, Qty: qty}, nil
}

func (m *MockBroker) BuyingPower(_ context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Power, nil
}

func (m *MockBroker) LatestPrice(_ context.Context, symbol string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Prices[symbol], nil
}

func (m *MockBroker) SubmitOrder(_ context.Context, req OrderRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.OrderErr != nil {
		return m.OrderErr
	}
	m.Orders = append(m.Orders, req)
	switch req.Side {
	case "buy":
		m.Positions[req.Symbol] += req.Qty
	case "sell":
		m.Positions[req.Symbol] -= req.Qty
	}
	return nil
}

func (m *MockBroker) ListPositions(_ context.Context) ([]model.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Position
	for sym, qty := range m.Positions {
		if qty != 0 {
			out = append(out, model.Position{Symbol: sym, Qty: qty})
		}
	}
	return out, nil
}

func (m *MockBroker) ClosePosition(_ context.Context, symbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.CloseErr[symbol]; err != nil {
		return err
	}
	if qty, ok := m.Positions[symbol]; !ok || qty == 0 {
		return ErrNoPosition
	}
	m.Closed = append(m.Closed, symbol)
	delete(m.Positions, symbol)
	return nil
}
