package quote

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finboard/internal/apperr"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, DefaultPair, logrus.New())
}

func TestReferenceRate_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"USDBRL": {"bid": "5.4321"}}`)
	})
	v, err := c.ReferenceRate(context.Background())
	require.NoError(t, err)
	assert.True(t, v.Equal(decimal.RequireFromString("5.4321")), "got %s", v)
}

func TestReferenceRate_CachesResult(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"USDBRL": {"bid": "5.00"}}`)
	})
	_, err := c.ReferenceRate(context.Background())
	require.NoError(t, err)
	_, err = c.ReferenceRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestReferenceRate_Non2xx(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.ReferenceRate(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.UpstreamUnavailable))
}

func TestReferenceRate_ParseFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	})
	_, err := c.ReferenceRate(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.UpstreamUnavailable))
}

func TestReferenceRate_MissingPair(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"EURBRL": {"bid": "6.0"}}`)
	})
	_, err := c.ReferenceRate(context.Background())
	require.Error(t, err)
}

func TestReferenceRate_NonPositiveBid(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"USDBRL": {"bid": "0"}}`)
	})
	_, err := c.ReferenceRate(context.Background())
	require.Error(t, err)
}

type failingProvider struct{}

func (failingProvider) ReferenceRate(context.Context) (decimal.Decimal, error) {
	return decimal.Zero, apperr.E(apperr.UpstreamUnavailable, "test", fmt.Errorf("down"))
}

func TestFallback_SubstitutesZero(t *testing.T) {
	v := Fallback(context.Background(), failingProvider{}, logrus.New())
	assert.True(t, v.IsZero())
}
