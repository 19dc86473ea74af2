package chat_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sgcombinator/web/chat"
)

func TestClient_Chat(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/invoke_chat", r.URL.Path)

			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, "how do I raise a seed round?", body["prompt"])

			_, _ = w.Write([]byte(`{"response":"Start with angels."}`))
		}))
		defer srv.Close()

		got, err := chat.NewClient(srv.URL+"/").Chat(ctx, "how do I raise a seed round?")
		require.NoError(t, err)
		require.Equal(t, "Start with angels.", got)
	})

	t.Run("empty response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"answer":"wrong field"}`))
		}))
		defer srv.Close()

		_, err := chat.NewClient(srv.URL).Chat(ctx, "hi")
		require.ErrorIs(t, err, chat.ErrFormat)
		require.Equal(t, chat.CodeFormat, chat.ErrorCode(err))
	})

	t.Run("not json", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}))
		defer srv.Close()

		_, err := chat.NewClient(srv.URL).Chat(ctx, "hi")
		require.Equal(t, chat.CodeFormat, chat.ErrorCode(err))
	})

	t.Run("upstream status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := chat.NewClient(srv.URL).Chat(ctx, "hi")
		require.ErrorIs(t, err, chat.ErrUpstream)
		require.Contains(t, err.Error(), "502")
		require.Equal(t, chat.CodeUnknown, chat.ErrorCode(err))
	})

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		client := chat.NewClient(srv.URL, chat.WithTimeouts(50*time.Millisecond, 0))
		_, err := client.Chat(ctx, "hi")
		require.ErrorIs(t, err, chat.ErrTimeout)
		require.Equal(t, chat.CodeTimeout, chat.ErrorCode(err))
	})

	t.Run("network", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := chat.NewClient(url).Chat(ctx, "hi")
		require.ErrorIs(t, err, chat.ErrNetwork)
		require.Equal(t, chat.CodeNetwork, chat.ErrorCode(err))
	})
}

func TestClient_SanityCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/sanity_check", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"alive","model":"v2"}`))
	}))
	defer srv.Close()

	data, err := chat.NewClient(srv.URL).SanityCheck(context.Background())
	require.NoError(t, err)
	require.JSONEq(t, `{"status":"alive","model":"v2"}`, string(data))
}

func TestErrorCode(t *testing.T) {
	require.Equal(t, chat.CodeUnknown, chat.ErrorCode(errors.New("other")))
	require.Equal(t, chat.CodeTimeout, chat.ErrorCode(chat.ErrTimeout))
}
