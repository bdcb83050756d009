package neighborhoods

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platepicker/backend/internal/domain"
)

func TestByPostalCode_ResponseShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []domain.NeighborhoodInfo
	}{
		{
			name: "bare array with numeric id",
			body: `[{"id":42,"name":"Greenwich Village","city":"New York","state":"NY"}]`,
			want: []domain.NeighborhoodInfo{{ID: "42", Name: "Greenwich Village", City: "New York", State: "NY"}},
		},
		{
			name: "wrapped under neighborhoods",
			body: `{"neighborhoods":[{"id":"gv","name":"Greenwich Village"},{"id":"wv","name":"West Village"}]}`,
			want: []domain.NeighborhoodInfo{{ID: "gv", Name: "Greenwich Village"}, {ID: "wv", Name: "West Village"}},
		},
		{
			name: "wrapped under data",
			body: `{"data":[{"id":"soho","name":"SoHo"}]}`,
			want: []domain.NeighborhoodInfo{{ID: "soho", Name: "SoHo"}},
		},
		{
			name: "records without id are dropped",
			body: `[{"name":"Nowhere"},{"id":"ok","name":"Somewhere"}]`,
			want: []domain.NeighborhoodInfo{{ID: "ok", Name: "Somewhere"}},
		},
		{
			name: "escaped string id is unescaped",
			body: `[{"id":"a\u002fb","name":"Escaped"}]`,
			want: []domain.NeighborhoodInfo{{ID: "a/b", Name: "Escaped"}},
		},
		{
			name: "null and non-scalar ids are dropped",
			body: `[{"id":null,"name":"Null"},{"id":true,"name":"Bool"},{"id":{"x":1},"name":"Obj"},{"id":7.5,"name":"Float"}]`,
			want: []domain.NeighborhoodInfo{{ID: "7.5", Name: "Float"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/by-zipcode/10014", r.URL.Path)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(Options{BaseURL: server.URL})
			got, err := client.ByPostalCode(context.Background(), "10014")

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestByPostalCode_NotFound(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"404 status", http.StatusNotFound, `{"error":"not found"}`},
		{"empty list", http.StatusOK, `[]`},
		{"empty envelope", http.StatusOK, `{"neighborhoods":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(Options{BaseURL: server.URL}).ByPostalCode(context.Background(), "99999")
			assert.ErrorIs(t, err, domain.ErrNeighborhoodNotFound)
		})
	}
}

func TestByPostalCode_Failures(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		_, err := NewClient(Options{BaseURL: server.URL}).ByPostalCode(context.Background(), "10001")
		assert.ErrorIs(t, err, domain.ErrNeighborhoodAPIFailure)
	})

	t.Run("malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"neighborhoods":"nope"}`))
		}))
		defer server.Close()

		_, err := NewClient(Options{BaseURL: server.URL}).ByPostalCode(context.Background(), "10001")
		assert.ErrorIs(t, err, domain.ErrNeighborhoodAPIFailure)
	})

	t.Run("unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		_, err := NewClient(Options{BaseURL: url}).ByPostalCode(context.Background(), "10001")
		assert.ErrorIs(t, err, domain.ErrNeighborhoodAPIFailure)
	})
}
