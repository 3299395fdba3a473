package publisher

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sljivkov/dextick/domain"
	"github.com/sljivkov/dextick/tickmath"
)

// MockConn implements Conn for testing
type MockConn struct {
	mock.Mock
}

func (m *MockConn) Publish(subject string, data []byte) error {
	args := m.Called(subject, data)

	return args.Error(0)
}

var pool = common.HexToAddress("0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640")

func TestPublish(t *testing.T) {
	conn := new(MockConn)
	p := New(conn, "dextick.", 2, nil)

	update := domain.Update{
		Pool:            pool,
		Block:           10,
		At:              time.Unix(1_700_000_000, 0),
		CurrentTick:     100,
		CurrentPrice:    1.010049662,
		HasCurrentPrice: true,
		Observations:    []tickmath.PricePoint{{Tick: "100", Price: 1.01, FromSecondsAgo: 30}},
		HasObservations: true,
	}

	var payload []byte
	conn.On("Publish", "dextick.0x88e6a0c2ddd26feeb64f039a2c41296fcb3f5640", mock.Anything).
		Run(func(args mock.Arguments) { payload = args.Get(1).([]byte) }).
		Return(nil).Once()

	require.NoError(t, p.Publish(update))
	conn.AssertExpectations(t)

	var msg Message
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, uint64(10), msg.Block)
	assert.Equal(t, int64(1_700_000_000), msg.Timestamp)
	require.NotNil(t, msg.Price)
	assert.Equal(t, "1.01", *msg.Price)
	require.Len(t, msg.Observations, 1)
}

func TestEncodeMissingDerivations(t *testing.T) {
	p := New(new(MockConn), "dextick", 6, nil)

	msg := p.Encode(domain.Update{Pool: pool, Observations: nil})
	assert.Nil(t, msg.Price)
	assert.Nil(t, msg.Tick)
	assert.Nil(t, msg.Observations)

	data, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"price":null`)
}

func TestPublishError(t *testing.T) {
	conn := new(MockConn)
	conn.On("Publish", mock.Anything, mock.Anything).Return(errors.New("nats: connection closed"))

	p := New(conn, "dextick", 6, nil)

	err := p.Publish(domain.Update{Pool: pool, HasCurrentPrice: true})
	assert.ErrorContains(t, err, "connection closed")
}
