package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkulima-labs/daftari-core/internal/core/domain"
)

func testClient(serverURL string) *Client {
	return NewClient(Config{
		BaseURL:      serverURL,
		DeviceID:     "DEV-1",
		DeviceSecret: "device-secret",
		Timeout:      5 * time.Second,
	})
}

func sampleRecord() *domain.DeliveryRecord {
	return &domain.DeliveryRecord{
		LocalKey:    "local-1",
		ReferenceID: "REF-1",
		WorkflowID:  "W1",
		ProducerID:  "P1",
		Session:     domain.SessionAM,
		WeightKg:    12.5,
		CapturedAt:  time.Now(),
		ClerkID:     "C1",
		DeviceID:    "DEV-1",
	}
}

func TestCreateDelivery_Accepted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/deliveries", r.URL.Path)
		assert.True(t, strings.HasPrefix(r.Header.Get("Authorization"), "Bearer "), "expected bearer token")
		var rec domain.DeliveryRecord
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rec))
		assert.Equal(t, "REF-1", rec.ReferenceID)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"entry_id": "E1"})
	}))
	defer server.Close()

	res, err := testClient(server.URL).CreateDelivery(context.Background(), sampleRecord())
	require.NoError(t, err)
	assert.Equal(t, domain.SubmitAccepted, res.Status)
	assert.Equal(t, "E1", res.EntryID)
}

func TestCreateDelivery_StatusClassification(t *testing.T) {
	cases := []struct {
		name   string
		code   int
		body   string
		status domain.SubmitStatus
	}{
		{"duplicate", http.StatusConflict, `{"message":"already recorded","existing_workflow_id":"W9"}`, domain.SubmitDuplicate},
		{"validation", http.StatusUnprocessableEntity, `{"message":"weight exceeds route maximum"}`, domain.SubmitValidationFailed},
		{"bad request", http.StatusBadRequest, `{"message":"missing session"}`, domain.SubmitValidationFailed},
		{"unauthorized", http.StatusUnauthorized, `{"message":"device not approved"}`, domain.SubmitUnauthorized},
		{"forbidden", http.StatusForbidden, `{"message":"device revoked"}`, domain.SubmitUnauthorized},
		{"server error", http.StatusInternalServerError, `boom`, domain.SubmitTransientError},
		{"rate limited", http.StatusTooManyRequests, ``, domain.SubmitTransientError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.code)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			res, err := testClient(server.URL).CreateDelivery(context.Background(), sampleRecord())
			require.NoError(t, err)
			assert.Equal(t, tc.status, res.Status)
			if tc.status == domain.SubmitDuplicate {
				assert.Equal(t, "W9", res.ExistingWorkflowID)
			}
		})
	}
}

func TestCreateDelivery_TransportErrorIsError(t *testing.T) {
	client := testClient("http://127.0.0.1:0")

	_, err := client.CreateDelivery(context.Background(), sampleRecord())
	require.Error(t, err)
}

func TestCreateSaleBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/sales/batch", r.URL.Path)
		var body saleBatchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "WS1", body.WorkflowID)
		assert.Len(t, body.Lines, 2)
		json.NewEncoder(w).Encode(map[string]string{"entry_id": "E2"})
	}))
	defer server.Close()

	batch := &domain.SaleBatch{
		WorkflowID: "WS1",
		Lines: []*domain.SaleRecord{
			{LocalKey: "l1", ReferenceID: "S1", WorkflowID: "WS1", ItemCode: "FEED-50", Quantity: 1, UnitPrice: 2500},
			{LocalKey: "l2", ReferenceID: "S2", WorkflowID: "WS1", ItemCode: "SALT-2", Quantity: 2, UnitPrice: 300},
		},
	}
	res, err := testClient(server.URL).CreateSaleBatch(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, domain.SubmitAccepted, res.Status)
}

func TestLookupDelivery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/deliveries/lookup", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "P1", q.Get("producer_id"))
		assert.Equal(t, "AM", q.Get("session"))
		assert.Equal(t, "2026-08-29", q.Get("date"))
		json.NewEncoder(w).Encode(domain.LedgerEntry{
			EntryID: "E1", ProducerID: "P1", Session: domain.SessionAM,
			Date: "2026-08-29", WorkflowID: "W1", WeightKg: 12.5,
		})
	}))
	defer server.Close()

	entry, err := testClient(server.URL).LookupDelivery(context.Background(), "P1", domain.SessionAM, "2026-08-29")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "W1", entry.WorkflowID)
}

func TestLookupDelivery_NoneIsNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	entry, err := testClient(server.URL).LookupDelivery(context.Background(), "P1", domain.SessionAM, "2026-08-29")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestVerifyDelivery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/deliveries/REF-1":
			w.WriteHeader(http.StatusOK)
		case "/api/v1/deliveries/REF-2":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	client := testClient(server.URL)
	ok, err := client.VerifyDelivery(context.Background(), "REF-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.VerifyDelivery(context.Background(), "REF-2")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = client.VerifyDelivery(context.Background(), "REF-3")
	require.Error(t, err, "server failure should surface as an error")
}

func TestFetchReferenceDatasets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/reference/producers":
			json.NewEncoder(w).Encode([]*domain.Producer{{ID: "P1", Name: "Amina", Active: true}})
		case "/api/v1/reference/routes":
			json.NewEncoder(w).Encode([]*domain.Route{{Code: "RT-1", Name: "North", Active: true}})
		case "/api/v1/reference/sessions":
			json.NewEncoder(w).Encode([]*domain.SessionWindow{{Session: domain.SessionAM, Opens: "05:30", Closes: "12:00"}})
		case "/api/v1/reference/items":
			json.NewEncoder(w).Encode([]*domain.PricedItem{{Code: "FEED-50", UnitPrice: 2500, Active: true}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := testClient(server.URL)
	ctx := context.Background()

	producers, err := client.FetchProducers(ctx)
	require.NoError(t, err)
	require.Len(t, producers, 1)
	assert.Equal(t, "P1", producers[0].ID)

	routes, err := client.FetchRoutes(ctx)
	require.NoError(t, err)
	assert.Len(t, routes, 1)

	windows, err := client.FetchSessionWindows(ctx)
	require.NoError(t, err)
	assert.Len(t, windows, 1)

	items, err := client.FetchPricedItems(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
