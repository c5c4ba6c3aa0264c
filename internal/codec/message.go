package codec

import (
	"encoding/json"
	"fmt"

	"github.com/yanun0323/errors"

	"tickpipe/internal/schema"
	"tickpipe/pkg/exception"
)

// envelope carries only the type tag so payloads can be dispatched
// before a full decode.
type envelope struct {
	Type schema.Kind `json:"type"`
}

// EncodeMessage serializes a message into one tagged JSON object.
func EncodeMessage(msg schema.Message) ([]byte, error) {
	switch m := msg.(type) {
	case schema.PriceTick:
		return json.Marshal(struct {
			Type schema.Kind `json:"type"`
			schema.PriceTick
		}{schema.KindPriceTick, m})
	case schema.NewsTick:
		return json.Marshal(struct {
			Type schema.Kind `json:"type"`
			schema.NewsTick
		}{schema.KindNewsTick, m})
	case schema.Order:
		return json.Marshal(struct {
			Type schema.Kind `json:"type"`
			schema.Order
		}{schema.KindOrder, m})
	default:
		return nil, fmt.Errorf("unsupported message type %T", msg)
	}
}

// DecodeMessage parses one tagged JSON object. Failures are reported
// as malformed-frame errors so receive loops can isolate them to the
// single frame.
func DecodeMessage(payload []byte) (schema.Message, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, errors.Wrap(exception.ErrFrameMalformed, err.Error())
	}
	switch env.Type {
	case schema.KindPriceTick:
		var m schema.PriceTick
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil, errors.Wrap(exception.ErrFrameMalformed, err.Error())
		}
		return m, nil
	case schema.KindNewsTick:
		var m schema.NewsTick
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil, errors.Wrap(exception.ErrFrameMalformed, err.Error())
		}
		return m, nil
	case schema.KindOrder:
		var m schema.Order
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil, errors.Wrap(exception.ErrFrameMalformed, err.Error())
		}
		return m, nil
	default:
		return nil, errors.Wrap(exception.ErrFrameMalformed, "unknown type tag: "+string(env.Type))
	}
}
