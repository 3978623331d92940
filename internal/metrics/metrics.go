package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "latentspeed_ticks_total", Help: "Count of market ticks ingested"},
		[]string{"symbol"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "latentspeed_orders_total", Help: "Orders dispatched to the gateway"},
		[]string{"symbol", "side"},
	)
	JumpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "latentspeed_jumps_total", Help: "Leader price jumps detected"},
		[]string{"symbol"},
	)
	DataFaultsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "latentspeed_data_faults_total", Help: "Malformed market data samples discarded"},
	)
	GatewayFaultsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "latentspeed_gateway_faults_total", Help: "Malformed gateway events discarded"},
	)
	DispatchFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "latentspeed_dispatch_failures_total", Help: "Order sends that failed at the transport"},
	)
	OpenPositions = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "latentspeed_open_positions", Help: "Currently supervised positions"},
	)
	RealizedPnL = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "latentspeed_realized_pnl_usd", Help: "Session realized PnL in USD"},
	)
	Correlation = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "latentspeed_correlation", Help: "Last computed leader/follower correlation"},
	)
)

func init() {
	prometheus.MustRegister(
		TicksTotal,
		OrdersTotal,
		JumpsTotal,
		DataFaultsTotal,
		GatewayFaultsTotal,
		DispatchFailuresTotal,
		OpenPositions,
		RealizedPnL,
		Correlation,
	)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
