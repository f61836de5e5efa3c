package mcp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/normrag/internal/core/domain"
)

func TestNewServer(t *testing.T) {
	t.Run("nil chat service returns error", func(t *testing.T) {
		ports := &Ports{}
		server, err := NewServer(ports)
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingChatService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		ports := &Ports{
			Chat: &mockChatService{},
		}
		server, err := NewServer(ports)
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("nil chat service returns error", func(t *testing.T) {
		ports := &Ports{}
		err := ports.Validate()
		assert.ErrorIs(t, err, ErrMissingChatService)
	})

	t.Run("chat only is valid", func(t *testing.T) {
		ports := &Ports{Chat: &mockChatService{}}
		assert.NoError(t, ports.Validate())
	})

	t.Run("all ports is valid", func(t *testing.T) {
		ports := &Ports{
			Chat:    &mockChatService{},
			Indexes: &mockIndexStatus{},
		}
		assert.NoError(t, ports.Validate())
	})
}

func TestNewServer_NilPorts(t *testing.T) {
	_, err := NewServer(nil)
	assert.ErrorIs(t, err, ErrMissingChatService)
}

func TestServer_Health(t *testing.T) {
	tests := []struct {
		name       string
		indexes    IndexStatusReader
		wantCode   int
		wantStatus string
	}{
		{"no index reader", nil, http.StatusOK, "ok"},
		{"all built", &mockIndexStatus{statuses: map[domain.Corpus]domain.IndexStatus{
			domain.CorpusNormative: {Built: true},
			domain.CorpusTT:        {Built: true},
		}}, http.StatusOK, "ok"},
		{"tt missing", &mockIndexStatus{statuses: map[domain.Corpus]domain.IndexStatus{
			domain.CorpusNormative: {Built: true},
		}}, http.StatusOK, "degraded"},
		{"normative missing", &mockIndexStatus{statuses: map[domain.Corpus]domain.IndexStatus{
			domain.CorpusTT: {Built: true},
		}}, http.StatusServiceUnavailable, "unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, err := NewServer(&Ports{
				Chat:    &mockChatService{},
				Indexes: tt.indexes,
				Corpora: domain.DefaultAppSettings().Corpora,
			})
			require.NoError(t, err)

			rec := httptest.NewRecorder()
			server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, HealthPath, http.NoBody))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			var report healthReport
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
			assert.Equal(t, tt.wantStatus, report.Status)
			assert.Equal(t, Version, report.Version)
		})
	}
}
