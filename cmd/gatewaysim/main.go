// Command gatewaysim is a local order-gateway simulator: it accepts order
// frames over websocket and answers each with an accepted report, a full
// fill, and a filled report. Point the engine's gateway order_url at it for
// end-to-end runs without a live venue.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Jss-on/latentspeed/internal/execution"
	"github.com/Jss-on/latentspeed/internal/util"
)

type order struct {
	ClientID string `json:"cl_id"`
	Action   string `json:"action"`
	Details  struct {
		Symbol string `json:"symbol"`
		Side   string `json:"side"`
		Size   string `json:"size"`
	} `json:"details"`
}

type envelope struct {
	Topic string `json:"topic"`
	Data  any    `json:"data"`
}

const simFeeRate = 0.0003

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

func main() {
	addr := flag.String("addr", ":8787", "listen address")
	price := flag.Float64("price", 2000, "fill price for simulated executions")
	flag.Parse()

	log := util.NewLogger("info")
	var seq atomic.Uint64

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("upgrade failed")
			return
		}
		defer conn.Close()
		log.Info().Str("remote", conn.RemoteAddr().String()).Msg("client connected")
		serve(log, conn, &seq, *price)
	})

	log.Info().Str("addr", *addr).Msg("gateway simulator up")
	if err := http.ListenAndServe(*addr, nil); err != nil {
		log.Fatal().Err(err).Msg("listen")
	}
}

func serve(log zerolog.Logger, conn *websocket.Conn, seq *atomic.Uint64, price float64) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Info().Err(err).Msg("client disconnected")
			return
		}
		var ord order
		if err := json.Unmarshal(message, &ord); err != nil {
			log.Warn().Err(err).Msg("bad order frame")
			continue
		}
		if ord.Action != "place" || ord.ClientID == "" {
			log.Warn().Str("action", ord.Action).Str("cl_id", ord.ClientID).Msg("ignoring frame")
			continue
		}
		size, err := strconv.ParseFloat(ord.Details.Size, 64)
		if err != nil || size <= 0 {
			if !send(log, conn, envelope{Topic: execution.TopicReport, Data: execution.Report{
				Version:    1,
				ClientID:   ord.ClientID,
				Status:     execution.StatusRejected,
				ReasonCode: "bad_size",
				ReasonText: fmt.Sprintf("unparseable size %q", ord.Details.Size),
				TsNs:       time.Now().UnixNano(),
			}}) {
				return
			}
			continue
		}

		n := seq.Add(1)
		now := time.Now().UnixNano()
		exchangeID := fmt.Sprintf("sim-%d", n)
		frames := []envelope{
			{Topic: execution.TopicReport, Data: execution.Report{
				Version:         1,
				ClientID:        ord.ClientID,
				ExchangeOrderID: exchangeID,
				Status:          execution.StatusAccepted,
				TsNs:            now,
			}},
			{Topic: execution.TopicFill, Data: execution.Fill{
				Version:         1,
				ClientID:        ord.ClientID,
				ExchangeOrderID: exchangeID,
				ExecID:          fmt.Sprintf("sim-exec-%d", n),
				Symbol:          ord.Details.Symbol,
				Side:            ord.Details.Side,
				Price:           price,
				Size:            size,
				FeeAmount:       price * size * simFeeRate,
				FeeCurrency:     "USDC",
				Liquidity:       "taker",
				TsNs:            now,
			}},
			{Topic: execution.TopicReport, Data: execution.Report{
				Version:         1,
				ClientID:        ord.ClientID,
				ExchangeOrderID: exchangeID,
				Status:          execution.StatusFilled,
				TsNs:            now,
			}},
		}
		for _, frame := range frames {
			if !send(log, conn, frame) {
				return
			}
		}
		log.Info().Str("cl_id", ord.ClientID).Str("side", ord.Details.Side).Float64("size", size).Msg("order simulated")
	}
}

func send(log zerolog.Logger, conn *websocket.Conn, frame envelope) bool {
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteJSON(frame); err != nil {
		log.Warn().Err(err).Msg("write failed")
		return false
	}
	return true
}
