package risk

type Limits struct {
	MaxNotionalPerTrade float64
	MaxDailyLoss        float64
}

func (l Limits) Allow(notional float64) bool {
	if l.MaxNotionalPerTrade <= 0 {
		return true
	}
	return notional <= l.MaxNotionalPerTrade
}

func (l Limits) DailyLossBreached(sessionPnL float64) bool {
	if l.MaxDailyLoss <= 0 {
		return false
	}
	return sessionPnL <= -l.MaxDailyLoss
}
