package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sljivkov/dextick/domain"
	"github.com/sljivkov/dextick/tickmath"
)

var pool = common.HexToAddress("0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640")

func TestObservePass(t *testing.T) {
	c := NewCollector("")
	label := pool.Hex()

	c.ObservePass(pool, 120*time.Millisecond, domain.Update{
		Block:           19_000_000,
		CurrentTick:     200000,
		CurrentPrice:    4.85e20,
		HasCurrentPrice: true,
		Observations:    []tickmath.PricePoint{{Tick: "1"}, {Tick: "2"}},
		HasObservations: true,
	})
	c.ObservePass(pool, 80*time.Millisecond, domain.Update{HasObservations: true, Observations: []tickmath.PricePoint{}})

	assert.Equal(t, 1.0, testutil.ToFloat64(c.passesTotal.WithLabelValues(label, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.passesTotal.WithLabelValues(label, "partial")))
	assert.Equal(t, 4.85e20, testutil.ToFloat64(c.currentPrice.WithLabelValues(label)))
	assert.Equal(t, 200000.0, testutil.ToFloat64(c.currentTick.WithLabelValues(label)))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.observations.WithLabelValues(label)))
	assert.Equal(t, 19_000_000.0, testutil.ToFloat64(c.lastBlock.WithLabelValues(label)))
}

func TestFailureCounters(t *testing.T) {
	c := NewCollector("test")

	c.DerivationFailed(pool, "current")
	c.DerivationFailed(pool, "current")
	c.SubscriptionError(pool)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.derivationFailures.WithLabelValues(pool.Hex(), "current")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.subscriptionErrors.WithLabelValues(pool.Hex())))
}

func TestPassResult(t *testing.T) {
	assert.Equal(t, "ok", passResult(domain.Update{HasCurrentPrice: true, HasObservations: true}))
	assert.Equal(t, "partial", passResult(domain.Update{HasCurrentPrice: true}))
	assert.Equal(t, "empty", passResult(domain.Update{}))
}

func TestHandler(t *testing.T) {
	c := NewCollector("")
	c.SubscriptionError(pool)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "dextick_subscription_errors_total")
}
