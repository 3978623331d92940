package execution

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Topics carried by the order gateway event stream.
const (
	TopicReport = "exec.report"
	TopicFill   = "exec.fill"
)

// Execution report statuses published by the gateway.
const (
	StatusAccepted        = "accepted"
	StatusRejected        = "rejected"
	StatusPartiallyFilled = "partially_filled"
	StatusFilled          = "filled"
	StatusCancelled       = "cancelled"
	StatusCancelRejected  = "cancel_rejected"
	StatusFailed          = "failed"
)

// Report is an order status update keyed by the intent's client id.
type Report struct {
	Version         int    `json:"version,omitempty"`
	ClientID        string `json:"cl_id"`
	ExchangeOrderID string `json:"exchange_order_id,omitempty"`
	Status          string `json:"status"`
	ReasonCode      string `json:"reason_code,omitempty"`
	ReasonText      string `json:"reason_text,omitempty"`
	TsNs            int64  `json:"ts_ns,omitempty"`
}

// Terminal reports no further status transition for the order.
func (r Report) Terminal() bool {
	switch r.Status {
	case StatusRejected, StatusFilled, StatusCancelled, StatusFailed:
		return true
	}
	return false
}

// Fill is a single execution against an order.
type Fill struct {
	Version         int     `json:"version,omitempty"`
	ClientID        string  `json:"cl_id"`
	ExchangeOrderID string  `json:"exchange_order_id,omitempty"`
	ExecID          string  `json:"exec_id,omitempty"`
	Symbol          string  `json:"symbol_or_pair,omitempty"`
	Side            string  `json:"side,omitempty"`
	Price           float64 `json:"price"`
	Size            float64 `json:"size"`
	FeeAmount       float64 `json:"fee_amount"`
	FeeCurrency     string  `json:"fee_currency,omitempty"`
	Liquidity       string  `json:"liquidity,omitempty"`
	TsNs            int64   `json:"ts_ns,omitempty"`
}

// EventKind discriminates the closed set of gateway event variants.
type EventKind int

const (
	// KindReport carries an execution report.
	KindReport EventKind = iota + 1
	// KindFill carries a fill.
	KindFill
	// KindFault carries a protocol error from the transport boundary.
	KindFault
)

// Event is the decoded form of one gateway stream message. Exactly one of
// Report, Fill, or Err is meaningful, selected by Kind.
type Event struct {
	Kind   EventKind
	Report Report
	Fill   Fill
	Err    error
}

// DecodeEvent parses a topic-tagged payload into an Event. Malformed input
// never propagates as an error return; it comes back as a KindFault event so
// stream consumers can count and continue.
func DecodeEvent(topic string, payload []byte) Event {
	switch topic {
	case TopicReport:
		var r Report
		if err := json.Unmarshal(payload, &r); err != nil {
			return faultEvent(fmt.Errorf("decode report: %w", err))
		}
		if r.ClientID == "" {
			return faultEvent(errors.New("report missing cl_id"))
		}
		if r.Status == "" {
			return faultEvent(errors.New("report missing status"))
		}
		return Event{Kind: KindReport, Report: r}
	case TopicFill:
		var f Fill
		if err := json.Unmarshal(payload, &f); err != nil {
			return faultEvent(fmt.Errorf("decode fill: %w", err))
		}
		if f.ClientID == "" {
			return faultEvent(errors.New("fill missing cl_id"))
		}
		return Event{Kind: KindFill, Fill: f}
	default:
		return faultEvent(fmt.Errorf("unknown topic %q", topic))
	}
}

func faultEvent(err error) Event {
	return Event{Kind: KindFault, Err: err}
}
