package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/dalemusser/termsite/config"
	"github.com/dalemusser/termsite/pantry/livereload"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	src := t.TempDir()
	files := map[string]string{
		"_layouts/default.html":                               `<html><head>{{ importmap }}</head><body>{{ template "content" . }}</body></html>`,
		"index.html":                                          `<main data-controller="clock">{{ "ready" | color "green" }}</main>`,
		"404.html":                                            "---\nlayout: none\n---\n<h1>lost</h1>",
		"_assets/javascripts/application.js":                  `import "./controllers/clock_controller"`,
		"_assets/javascripts/controllers/clock_controller.js": "export default class ClockController extends Controller {}",
	}
	for name, body := range files {
		p := filepath.Join(src, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return &config.Config{
		Env:      "dev",
		LogLevel: "info",
		Build: config.BuildConfig{
			Source:            src,
			Destination:       filepath.Join(t.TempDir(), "_site"),
			AssetsDir:         "_assets",
			LayoutsDir:        "_layouts",
			DataDir:           "_data",
			WrapWidth:         42,
			RenderWorkers:     2,
			BuildTimeout:      30 * time.Second,
			ImportMapBase:     "/",
			StrictControllers: true,
		},
		HTTP: config.HTTPConfig{
			HTTPPort:          4000,
			EnableCompression: true,
			CompressionLevel:  5,
		},
	}
}

func TestApp_BuildAndServe(t *testing.T) {
	a, err := New(testConfig(t), nil)
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	if err := a.Build(context.Background()); err != nil {
		t.Fatalf("Build error = %v", err)
	}
	if !a.Controllers.Application().Registered("clock") {
		t.Error("clock controller not resolved")
	}

	h := a.Handler()
	tests := []struct {
		name     string
		method   string
		target   string
		accept   string
		wantCode int
		wantBody string
	}{
		{"home", http.MethodGet, "/", "", http.StatusOK, `"./controllers/clock_controller": "/_assets/javascripts/controllers/clock_controller.js"`},
		{"module", http.MethodGet, "/_assets/javascripts/controllers/clock_controller.js", "", http.StatusOK, "ClockController"},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK, "go_goroutines"},
		{"browser 404", http.MethodGet, "/missing", "text/html", http.StatusNotFound, "<h1>lost</h1>"},
		{"json 404", http.MethodGet, "/missing", "application/json", http.StatusNotFound, `"not_found"`},
		{"post", http.MethodPost, "/", "", http.StatusMethodNotAllowed, `"method_not_allowed"`},
		{"healthz", http.MethodGet, "/healthz", "", http.StatusOK, `"status":"ok"`},
		{"version", http.MethodGet, "/version", "", http.StatusOK, `"go_version"`},
		{"pprof", http.MethodGet, "/debug/pprof/", "", http.StatusOK, "goroutine"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body does not contain %q:\n%s", tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestApp_HealthBeforeBuild(t *testing.T) {
	a, err := New(testConfig(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "site not built") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestApp_ImportMap(t *testing.T) {
	a, err := New(testConfig(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	m, err := a.ImportMap(context.Background())
	if err != nil {
		t.Fatalf("ImportMap error = %v", err)
	}
	if u, ok := m.Lookup("./application"); !ok || u != "/_assets/javascripts/application.js" {
		t.Errorf("./application = %q, %v", u, ok)
	}
	if _, err := os.Stat(a.Config.Build.Destination); !os.IsNotExist(err) {
		t.Error("ImportMap wrote the destination")
	}
}

func TestApp_LiveReload(t *testing.T) {
	a, err := New(testConfig(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	hub := a.EnableLiveReload()
	if a.EnableLiveReload() != hub {
		t.Error("EnableLiveReload created a second hub")
	}
	if err := a.Build(context.Background()); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(filepath.Join(a.Config.Build.Destination, "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), livereload.Script+"</body>") {
		t.Errorf("reload script not injected:\n%s", b)
	}

	srv := httptest.NewServer(a.Handler())
	defer srv.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, _, err := websocket.Dial(ctx, srv.URL+livereload.Path, nil)
	if err != nil {
		t.Fatalf("Dial error = %v", err)
	}
	defer c.CloseNow()
	for hub.Clients() == 0 {
		time.Sleep(10 * time.Millisecond)
	}

	a.rebuild(ctx, []string{"index.html"})
	if _, msg, err := c.Read(ctx); err != nil || string(msg) != livereload.Message {
		t.Errorf("Read = %q, %v", msg, err)
	}
}

func TestApp_Deploy(t *testing.T) {
	cfg := testConfig(t)
	cfg.Deploy.DeployDir = filepath.Join(t.TempDir(), "www")
	cfg.Deploy.DeployWorkers = 2
	a, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	res, err := a.Deploy(context.Background(), false)
	if err != nil {
		t.Fatalf("Deploy error = %v", err)
	}
	if len(res.Uploaded) != 4 {
		t.Errorf("uploaded = %v", res.Uploaded)
	}
	if _, err := os.Stat(filepath.Join(cfg.Deploy.DeployDir, "_assets", "javascripts", "controllers", "clock_controller.js")); err != nil {
		t.Errorf("controller not deployed: %v", err)
	}

	cfg.Deploy.DeployDir = ""
	if _, err := a.Deploy(context.Background(), false); !errors.Is(err, ErrNoDeployTarget) {
		t.Errorf("err = %v, want ErrNoDeployTarget", err)
	}
}

func TestApp_ServeStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.HTTP.HTTPPort = 0
	a, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve error = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not stop")
	}
}
