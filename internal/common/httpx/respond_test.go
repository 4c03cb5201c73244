package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-pos/internal/domain"
)

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		errors.New("boom"):                              http.StatusInternalServerError,
		fmt.Errorf("%w: order x", domain.ErrNotFound):   http.StatusNotFound,
		fmt.Errorf("%w: version 3", domain.ErrConflict): http.StatusConflict,
		domain.ErrDuplicateRequest:                      http.StatusConflict,
		domain.ErrInsufficientPayment:                   http.StatusUnprocessableEntity,
		domain.ErrIllegalTransition:                     http.StatusUnprocessableEntity,
	}
	for err, want := range cases {
		assert.Equal(t, want, StatusFor(domain.KindOf(err)), err.Error())
	}
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestWriteErrorCarriesRemaining(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, &domain.SplitMismatchError{Remaining: decimal.NewFromInt(-1)})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, "split_mismatch", body["type"])
	assert.Equal(t, "-1", body["remaining"])
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("dial tcp 10.0.0.3:5432: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, "internal_error", body["type"])
	assert.NotContains(t, body["detail"], "10.0.0.3")
}

func TestAtoiDefault(t *testing.T) {
	assert.Equal(t, 7, AtoiDefault("", 7))
	assert.Equal(t, 7, AtoiDefault("seven", 7))
	assert.Equal(t, 25, AtoiDefault("25", 7))
}

func TestServerRunStopsOnCancel(t *testing.T) {
	srv := New("127.0.0.1:0", http.NotFoundHandler(), time.Second, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- srv.Run(ctx) }()

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
