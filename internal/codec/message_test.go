package codec

import (
	"github.com/yanun0323/errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickpipe/internal/schema"
	"tickpipe/pkg/exception"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	messages := []schema.Message{
		schema.PriceTick{Symbol: "AAPL", Price: 150.25, Ts: 1700000000.123},
		schema.NewsTick{Headline: "AAPL beats quarterly expectations", Sentiment: schema.SentimentBullish, Ts: 1700000000.5},
		schema.Order{ID: 7, Symbol: "MSFT", Side: schema.SideSell, Qty: 10, Price: 325.2, Ts: 1700000001.25},
	}
	for _, orig := range messages {
		payload, err := EncodeMessage(orig)
		require.NoError(t, err)

		decoded, err := DecodeMessage(payload)
		require.NoError(t, err)
		assert.Equal(t, orig.Kind(), decoded.Kind())
		assert.Equal(t, orig, decoded)
	}
}

func TestDecodeRejectsBadPayload(t *testing.T) {
	_, err := DecodeMessage([]byte("not json at all"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, exception.ErrFrameMalformed))

	_, err = DecodeMessage([]byte(`{"type":"heartbeat"}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, exception.ErrFrameMalformed))

	_, err = DecodeMessage([]byte(`{"type":"price_tick","price":"not a number"}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, exception.ErrFrameMalformed))
}

func TestEncodeRejectsUnknownType(t *testing.T) {
	_, err := EncodeMessage(nil)
	assert.Error(t, err)
}
