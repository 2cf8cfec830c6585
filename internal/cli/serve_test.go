package cli

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

func TestSiteRouterServesFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "images", "diagrams"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>home</html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	svg := filepath.Join(dir, "images", "diagrams", "abc.svg")
	if err := os.WriteFile(svg, []byte(`<svg width="10pt" height="10pt"></svg>`), 0o644); err != nil {
		t.Fatal(err)
	}

	router := newSiteRouter(dir, log.New(io.Discard))
	srv := httptest.NewServer(router)
	defer srv.Close()

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/index.html", http.StatusOK},
		{"/images/diagrams/abc.svg", http.StatusOK},
		{"/images/diagrams/missing.svg", http.StatusNotFound},
	}
	for _, tt := range tests {
		resp, err := http.Get(srv.URL + tt.path)
		if err != nil {
			t.Fatalf("GET %s: %v", tt.path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != tt.wantStatus {
			t.Errorf("GET %s status = %d, want %d", tt.path, resp.StatusCode, tt.wantStatus)
		}
	}
}
