package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mandiFeed = `{"records": [
	{"commodity": "Potato", "state": "Punjab", "market": "Ludhiana", "min_price": "1100", "max_price": "1400", "modal_price": "1250", "arrival_date": "30/08/2026"},
	{"commodity": "Potato", "state": "Punjab", "market": "Jalandhar", "min_price": "1000", "max_price": "1300", "modal_price": "1150", "arrival_date": "30/08/2026"},
	{"commodity": "Potato", "state": "Punjab", "market": "Amritsar", "min_price": "1200", "max_price": "1500", "modal_price": "1350", "arrival_date": "30/08/2026"}
]}`

// memoryPriceStore fakes the sqlite price cache.
type memoryPriceStore struct {
	payload   string
	fetchedAt time.Time
	key       string
}

func (m *memoryPriceStore) GetPrice(key string) (string, time.Time, bool) {
	if key == m.key && m.payload != "" {
		return m.payload, m.fetchedAt, true
	}
	return "", time.Time{}, false
}

func (m *memoryPriceStore) PutPrice(key, payload string, fetchedAt time.Time) error {
	m.key, m.payload, m.fetchedAt = key, payload, fetchedAt
	return nil
}

func TestGetMandiPriceFromFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Potato", r.URL.Query().Get("filters[commodity]"))
		assert.Equal(t, "Punjab", r.URL.Query().Get("filters[state]"))
		w.Write([]byte(mandiFeed))
	}))
	defer server.Close()

	m := NewMandiClient("key", server.URL, time.Minute, nil, nil)
	result := m.GetMandiPrice(context.Background(), "potato", "punjab")

	assert.Equal(t, "market", result.Type)
	assert.Equal(t, 0.95, result.Confidence)
	assert.Equal(t, 1250.0, result.Details["modal_price"])
	assert.Equal(t, 3, result.Details["markets_covered"])
	assert.Contains(t, result.Summary, "Potato")
	assert.Contains(t, result.Summary, "Punjab")
	// 1250 is within 10% of the 1250 average: stable
	assert.Contains(t, result.Advisory[0], "STABLE")
}

func TestGetMandiPriceCachesWithinTTL(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.Write([]byte(mandiFeed))
	}))
	defer server.Close()

	m := NewMandiClient("key", server.URL, time.Minute, nil, nil)
	m.GetMandiPrice(context.Background(), "potato", "punjab")
	m.GetMandiPrice(context.Background(), "potato", "punjab")

	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))

	// A different crop+state key misses the cache
	m.GetMandiPrice(context.Background(), "onion", "punjab")
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
}

func TestGetMandiPriceExpiredTTLRefetches(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.Write([]byte(mandiFeed))
	}))
	defer server.Close()

	m := NewMandiClient("key", server.URL, time.Nanosecond, nil, nil)
	m.GetMandiPrice(context.Background(), "potato", "punjab")
	time.Sleep(time.Millisecond)
	m.GetMandiPrice(context.Background(), "potato", "punjab")

	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
}

func TestGetMandiPricePersistentStoreSkipsFeed(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.Write([]byte(mandiFeed))
	}))
	defer server.Close()

	store := &memoryPriceStore{
		key:       "potato_punjab",
		payload:   `[{"commodity": "Potato", "market": "Ludhiana", "min_price": "1100", "max_price": "1400", "modal_price": "1250"}]`,
		fetchedAt: time.Now(),
	}
	m := NewMandiClient("key", server.URL, time.Minute, store, nil)
	result := m.GetMandiPrice(context.Background(), "potato", "punjab")

	assert.Equal(t, int64(0), atomic.LoadInt64(&calls))
	assert.Equal(t, 0.95, result.Confidence)
	assert.Equal(t, 1250.0, result.Details["modal_price"])
}

func TestGetMandiPriceFeedDownUsesReferenceTable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	m := NewMandiClient("key", server.URL, time.Minute, nil, nil)
	result := m.GetMandiPrice(context.Background(), "wheat", "")

	assert.Equal(t, 0.85, result.Confidence)
	assert.Equal(t, "Market Trend Data", result.Source)
	assert.Equal(t, 2400.0, result.Details["modal_price"])
	assert.Equal(t, "All India", result.Details["state"])
}

func TestGetMandiPriceUnknownCommodity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"records": []}`))
	}))
	defer server.Close()

	m := NewMandiClient("key", server.URL, time.Minute, nil, nil)
	result := m.GetMandiPrice(context.Background(), "dragonfruit", "kerala")

	assert.Equal(t, 0.3, result.Confidence)
	assert.Contains(t, result.Summary, "check official sources")
}

func TestInvalidateCacheForcesRefetch(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.Write([]byte(mandiFeed))
	}))
	defer server.Close()

	m := NewMandiClient("key", server.URL, time.Minute, nil, nil)
	m.GetMandiPrice(context.Background(), "potato", "punjab")
	m.InvalidateCache()
	m.GetMandiPrice(context.Background(), "potato", "punjab")

	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
}

func TestFormatRecordsHighLowAdvisory(t *testing.T) {
	m := NewMandiClient("key", "http://unused.invalid", time.Minute, nil, nil)

	high, ok := m.formatRecords("Potato", "punjab", []mandiRecord{
		{Market: "A", ModalPrice: "2000", MinPrice: "1900", MaxPrice: "2100"},
		{Market: "B", ModalPrice: "1000", MinPrice: "900", MaxPrice: "1100"},
	})
	require.True(t, ok)
	assert.Contains(t, high.Advisory[0], "HIGH")

	low, ok := m.formatRecords("Potato", "punjab", []mandiRecord{
		{Market: "A", ModalPrice: "1000", MinPrice: "900", MaxPrice: "1100"},
		{Market: "B", ModalPrice: "2000", MinPrice: "1900", MaxPrice: "2100"},
	})
	require.True(t, ok)
	assert.Contains(t, low.Advisory[0], "LOW")
}

func TestFormatRecordsSkipsUnparseablePrices(t *testing.T) {
	m := NewMandiClient("key", "http://unused.invalid", time.Minute, nil, nil)

	_, ok := m.formatRecords("Potato", "", []mandiRecord{
		{Market: "A", ModalPrice: "NR"},
		{Market: "B", ModalPrice: "0"},
	})
	assert.False(t, ok)
}

func TestTitleWord(t *testing.T) {
	assert.Equal(t, "Uttar Pradesh", titleWord("uttar pradesh"))
	assert.Equal(t, "Potato", titleWord(" POTATO "))
	assert.Equal(t, "", titleWord(""))
}
