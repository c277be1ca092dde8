package natsadapter_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	natsadapter "github.com/samirrijal/nearbyplaces/internal/adapters/nats"
	"github.com/samirrijal/nearbyplaces/internal/core/domain"
)

type handlerFunc func(ctx context.Context, req domain.ChatRequest) domain.ChatReply

func (f handlerFunc) Handle(ctx context.Context, req domain.ChatRequest) domain.ChatReply {
	return f(ctx, req)
}

func TestHandleMessage(t *testing.T) {
	var got domain.ChatRequest
	r := natsadapter.NewResponder(nil, handlerFunc(func(ctx context.Context, req domain.ChatRequest) domain.ChatReply {
		got = req
		return domain.ChatReply{Kind: domain.ReplyResults, Text: "1. Cafe A"}
	}), 0)

	out := r.HandleMessage(context.Background(), []byte(`{"text":"find cafe","location":{"lat":40,"lon":-75}}`))

	require.NotNil(t, got.Location)
	assert.Equal(t, "find cafe", got.Text)
	assert.Equal(t, domain.GeoPoint{Lat: 40, Lon: -75}, *got.Location)

	var reply domain.ChatReply
	require.NoError(t, json.Unmarshal(out, &reply))
	assert.Equal(t, domain.ReplyResults, reply.Kind)
	assert.Equal(t, "1. Cafe A", reply.Text)
}

func TestHandleMessage_InvalidJSON(t *testing.T) {
	called := false
	r := natsadapter.NewResponder(nil, handlerFunc(func(ctx context.Context, req domain.ChatRequest) domain.ChatReply {
		called = true
		return domain.ChatReply{}
	}), 0)

	var reply domain.ChatReply
	require.NoError(t, json.Unmarshal(r.HandleMessage(context.Background(), []byte("{")), &reply))
	assert.False(t, called)
	assert.Equal(t, domain.ReplyError, reply.Kind)
	assert.Equal(t, domain.DefaultErrorMessage, reply.Text)
}

func TestHandleMessage_TriggersOnly(t *testing.T) {
	calls := 0
	r := natsadapter.NewResponder(nil, handlerFunc(func(ctx context.Context, req domain.ChatRequest) domain.ChatReply {
		calls++
		return domain.ChatReply{Kind: domain.ReplyRequestLocation, Text: domain.DefaultRequestLocationMessage}
	}), 0)
	r.TriggersOnly = true

	assert.Nil(t, r.HandleMessage(context.Background(), []byte(`{"text":"what's the weather like"}`)))
	assert.Equal(t, 0, calls)

	out := r.HandleMessage(context.Background(), []byte(`{"text":"find nearest pharmacy"}`))
	require.NotNil(t, out)
	assert.Equal(t, 1, calls)
}
