package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/oliviabot/oliviabot/pkg/discord"
)

type captured struct {
	query       string
	contentType string
	json        map[string]any
	files       map[string]string
}

func newServer(t *testing.T, status int) (*httptest.Server, chan captured) {
	t.Helper()
	got := make(chan captured, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := captured{query: r.URL.RawQuery, contentType: r.Header.Get("Content-Type"), files: map[string]string{}}
		if r.MultipartForm == nil && r.Header.Get("Content-Type") != "application/json" {
			assert.NoError(t, r.ParseMultipartForm(1<<20))
			assert.NoError(t, json.Unmarshal([]byte(r.FormValue("payload_json")), &c.json))
			for field, headers := range r.MultipartForm.File {
				f, err := headers[0].Open()
				assert.NoError(t, err)
				b, _ := io.ReadAll(f)
				f.Close()
				c.files[field+":"+headers[0].Filename] = string(b)
			}
		} else {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&c.json))
		}
		got <- c
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"message": "nope"}`))
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestExecute_JSON(t *testing.T) {
	srv, got := newServer(t, http.StatusOK)
	c, err := New(srv.URL+"/api/webhooks/1/abc", WithLimiter(nil))
	require.NoError(t, err)

	err = c.Execute(context.Background(), Payload{
		Embeds:          []discord.Embed{{Title: "Error: boom", Color: 0xFF8020}},
		AllowedMentions: &discord.AllowedMentions{Parse: []string{}},
	})
	require.NoError(t, err)

	req := <-got
	assert.Equal(t, "wait=true", req.query)
	assert.Equal(t, "application/json", req.contentType)
	embeds := req.json["embeds"].([]any)
	assert.Equal(t, "Error: boom", embeds[0].(map[string]any)["title"])
	assert.Equal(t, map[string]any{"parse": []any{}}, req.json["allowed_mentions"])
	assert.NotContains(t, req.json, "content")
}

func TestExecute_Multipart(t *testing.T) {
	srv, got := newServer(t, http.StatusNoContent)
	c, err := New(srv.URL, WithLimiter(nil))
	require.NoError(t, err)

	err = c.Execute(context.Background(), Payload{
		Content:     "@everyone",
		Attachments: []Attachment{{Filename: "backtrace.txt", Content: []byte("goroutine 1")}},
	})
	require.NoError(t, err)

	req := <-got
	assert.Contains(t, req.contentType, "multipart/form-data")
	assert.Equal(t, "@everyone", req.json["content"])
	assert.Equal(t, []any{map[string]any{"id": float64(0), "filename": "backtrace.txt"}}, req.json["attachments"])
	assert.Equal(t, "goroutine 1", req.files["files[0]:backtrace.txt"])
}

func TestExecute_NonSuccessStatus(t *testing.T) {
	srv, _ := newServer(t, http.StatusBadRequest)
	c, err := New(srv.URL, WithLimiter(nil))
	require.NoError(t, err)

	err = c.Execute(context.Background(), Payload{Content: "x"})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.Status)
	assert.Contains(t, statusErr.Body, "nope")
}

func TestExecute_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url, WithLimiter(nil))
	require.NoError(t, err)
	assert.Error(t, c.Execute(context.Background(), Payload{Content: "x"}))
}

func TestExecute_OverBudgetFailsFast(t *testing.T) {
	srv, got := newServer(t, http.StatusOK)
	c, err := New(srv.URL, WithLimiter(rate.NewLimiter(rate.Every(time.Hour), 1)))
	require.NoError(t, err)

	require.NoError(t, c.Execute(context.Background(), Payload{Content: "first"}))
	<-got

	start := time.Now()
	err = c.Execute(context.Background(), Payload{Content: "second"})
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Less(t, time.Since(start), time.Second)
	assert.Empty(t, got, "over-budget delivery reached the server")
}

func TestNew_InvalidURL(t *testing.T) {
	for _, raw := range []string{"", "ftp://example.com/hook", "https://", "://bad"} {
		_, err := New(raw)
		assert.Error(t, err, raw)
	}
}
