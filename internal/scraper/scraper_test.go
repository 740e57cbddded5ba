package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const filingPage = `<html><head><script>var x=1;</script></head><body>
<nav>menu</nav>
<div id="dvMainContent">
  <h1>گزارش فعالیت ماهانه</h1>
  <p>درآمد فروش این ماه افزایش یافت.</p>
</div>
<footer>contact</footer>
</body></html>`

func TestFetchFilingExtractsMainContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(filingPage))
	}))
	defer server.Close()

	s := New(WithHTTPClient(server.Client()))
	text, err := s.FetchFiling(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Contains(t, text, "گزارش فعالیت ماهانه")
	assert.Contains(t, text, "درآمد فروش")
	assert.NotContains(t, text, "menu")
	assert.NotContains(t, text, "var x=1")
}

func TestFetchFilingTruncates(t *testing.T) {
	long := "<html><body><div id=\"dvMainContent\"><p>" +
		strings.Repeat("تحلیل ", 2000) + "</p></div></body></html>"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(long))
	}))
	defer server.Close()

	s := New(WithHTTPClient(server.Client()))
	text, err := s.FetchFiling(context.Background(), server.URL)
	require.NoError(t, err)
	assert.LessOrEqual(t, utf8.RuneCountInString(text), MaxContentChars)
}

func TestFetchFilingNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	s := New(WithHTTPClient(server.Client()))
	_, err := s.FetchFiling(context.Background(), server.URL)
	assert.Error(t, err)
}

func TestTruncateRuneSafe(t *testing.T) {
	assert.Equal(t, "سلام", Truncate("سلام", 10))
	assert.Equal(t, "سلا", Truncate("سلام", 3))
}
