package extract

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainTextConverter(t *testing.T) {
	ctx := context.Background()
	var c PlainTextConverter

	text, err := c.ToText(ctx, []byte("Salary Income: Rs.1,000"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "Salary Income: Rs.1,000", text)

	_, err = c.ToText(ctx, []byte{0xff, 0xfe, 0xfd}, "application/pdf")
	assert.ErrorIs(t, err, ErrUnreadable)

	_, err = c.ToText(ctx, nil, "text/plain")
	assert.ErrorIs(t, err, ErrUnreadable)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = c.ToText(cancelled, []byte("x"), "text/plain")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPConverter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		switch string(body) {
		case "pdf-bytes":
			assert.Equal(t, "application/pdf", r.Header.Get("Content-Type"))
			_, _ = w.Write([]byte("PAN: ABCDE1234F"))
		default:
			w.WriteHeader(http.StatusUnprocessableEntity)
		}
	}))
	defer srv.Close()

	c := NewHTTPConverter(srv.URL, 1<<20)

	text, err := c.ToText(context.Background(), []byte("pdf-bytes"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "PAN: ABCDE1234F", text)

	_, err = c.ToText(context.Background(), []byte("junk"), "")
	assert.ErrorIs(t, err, ErrUnreadable)
}

func TestHTTPConverter_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPConverter(url, 1<<20).ToText(context.Background(), []byte("x"), "")
	assert.Error(t, err)
}
