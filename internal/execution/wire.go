package execution

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	wireVersion     = 1
	actionPlace     = "place"
	venueTypeCEX    = "cex"
	orderTypeMarket = "market"
)

type orderDetails struct {
	Symbol     string `json:"symbol"`
	Side       string `json:"side"`
	OrderType  string `json:"order_type"`
	Size       string `json:"size"`
	ReduceOnly string `json:"reduce_only"`
}

type orderMessage struct {
	Version     int               `json:"version"`
	ClID        string            `json:"cl_id"`
	Action      string            `json:"action"`
	VenueType   string            `json:"venue_type"`
	Venue       string            `json:"venue"`
	ProductType string            `json:"product_type"`
	Details     orderDetails      `json:"details"`
	TsNs        int64             `json:"ts_ns"`
	Tags        map[string]string `json:"tags,omitempty"`
}

// EncodeIntent serializes an intent into the gateway order message. Sizes
// travel as strings so the venue side never loses precision to float parsing.
func EncodeIntent(in Intent, venue, productType string) ([]byte, error) {
	if err := validateIntent(in); err != nil {
		return nil, err
	}
	ts := in.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	msg := orderMessage{
		Version:     wireVersion,
		ClID:        in.ClientID,
		Action:      actionPlace,
		VenueType:   venueTypeCEX,
		Venue:       venue,
		ProductType: productType,
		Details: orderDetails{
			Symbol:     in.Symbol,
			Side:       strings.ToLower(string(in.Side)),
			OrderType:  orderTypeMarket,
			Size:       strconv.FormatFloat(in.Size, 'f', -1, 64),
			ReduceOnly: strconv.FormatBool(in.ReduceOnly),
		},
		TsNs: ts.UnixNano(),
		Tags: in.Tags,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode order: %w", err)
	}
	return payload, nil
}
