package search

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html><body>
<div class="results">
 <div class="result results_links web-result"><div class="links_main links_deep result__body">
  <h2 class="result__title"><a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fweather.example%2Foslo&amp;rut=abc">Oslo <b>weather</b></a></h2>
  <a class="result__snippet" href="#">Sunny, <b>21C</b>.</a>
 </div></div>
 <div class="result results_links web-result"><div class="links_main links_deep result__body">
  <h2 class="result__title"><a class="result__a" href="https://news.example/">Forecast</a></h2>
  <a class="result__snippet" href="#">Light wind.</a>
 </div></div>
 <div class="result results_links web-result"><div class="links_main links_deep result__body">
  <h2 class="result__title"><a class="result__a" href="https://third.example/">Third</a></h2>
  <a class="result__snippet" href="#">No rain.</a>
 </div></div>
</div></body></html>`

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestSearchParsesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "weather in oslo", r.PostForm.Get("q"))
		io.WriteString(w, page)
	}))
	defer srv.Close()

	d := New(Options{Endpoint: srv.URL, Logger: quiet()})
	res, err := d.Search(context.Background(), "weather in oslo", 2)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "Oslo weather", res[0].Title)
	assert.Equal(t, "https://weather.example/oslo", res[0].Href)
	assert.Equal(t, "Sunny, 21C.", res[0].Body)
	assert.Equal(t, "Light wind.", res[1].Body)
}

func TestSearchNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html><body><div class="no-results">nothing</div></body></html>`)
	}))
	defer srv.Close()

	_, err := New(Options{Endpoint: srv.URL, Logger: quiet()}).Search(context.Background(), "x", 3)
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestSearchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := New(Options{Endpoint: srv.URL, Logger: quiet()}).Search(context.Background(), "x", 3)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoResults)
}

func TestCleanHref(t *testing.T) {
	assert.Equal(t, "https://a.example/x", cleanHref("//duckduckgo.com/l/?uddg=https%3A%2F%2Fa.example%2Fx&rut=1"))
	assert.Equal(t, "https://b.example/", cleanHref("https://b.example/"))
}
