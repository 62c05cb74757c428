package backtest

import "crossbt/internal/domain"

// Positions folds a signal sequence into the binary held state used by the
// simple variant. The initial state is flat; a buy moves to long, a sell
// moves to flat, and a hold carries the previous state forward.
func Positions(signals []domain.Signal) []domain.Position {
	out := make([]domain.Position, len(signals))
	state := domain.PositionFlat
	for i, sig := range signals {
		switch sig {
		case domain.SignalBuy:
			state = domain.PositionLong
		case domain.SignalSell:
			state = domain.PositionFlat
		}
		out[i] = state
	}
	return out
}
