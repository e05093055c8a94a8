package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindmap3d/pipelineerrors"
)

func articleHTML(paragraphs int) string {
	var b strings.Builder
	b.WriteString(`<html><head><title>Test Article</title></head><body>`)
	b.WriteString(`<nav class="navbar">Home | About | Contact</nav>`)
	b.WriteString(`<div class="cookie-banner">We use cookies.</div>`)
	b.WriteString(`<article><h1>A Long Article About Mitochondria</h1>`)
	b.WriteString(`<div class="byline">By Jane Doe</div>`)
	b.WriteString(`<div class="reading-time">5 min read</div>`)
	for i := 0; i < paragraphs; i++ {
		b.WriteString(`<p>The mitochondrion is a membrane-bound organelle found in most eukaryotic cells. It generates most of the cell's supply of adenosine triphosphate, used as a source of chemical energy. Mitochondria are often called the powerhouse of the cell because of this role.</p>`)
	}
	b.WriteString(`<div class="share-buttons">Share this</div>`)
	b.WriteString(`<div id="comments">Great article!</div>`)
	b.WriteString(`</article></body></html>`)
	return b.String()
}

func TestScraper_Fetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(articleHTML(10)))
	}))
	defer srv.Close()

	s := New()
	text, err := s.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, strings.ToLower(text), "mitochond")
	assert.NotContains(t, text, "Share this")
}

func TestScraper_Fetch_RejectsNonHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	s := New()
	_, err := s.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, pipelineerrors.Is(err, pipelineerrors.KindUrlFetch))
}

func TestScraper_Fetch_RejectsTooShortBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><p>Too short.</p></body></html>`))
	}))
	defer srv.Close()

	s := New()
	_, err := s.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, pipelineerrors.Is(err, pipelineerrors.KindContentExtraction))
}

func TestScraper_Fetch_RejectsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := New()
	_, err := s.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, pipelineerrors.Is(err, pipelineerrors.KindUrlFetch))
}
