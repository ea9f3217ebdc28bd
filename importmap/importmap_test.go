package importmap

import (
	"encoding/json"
	"strings"
	"testing"
	"testing/fstest"
)

func siteFS() fstest.MapFS {
	return fstest.MapFS{
		"_assets/javascripts/application.js":                {Data: []byte("import './controllers/menu_controller'")},
		"_assets/javascripts/controllers/menu_controller.js": {Data: []byte("export default class extends Controller {}")},
		"_assets/javascripts/controllers/nav/tabs_controller.js": {Data: []byte("export default class Tabs {}")},
		"_assets/javascripts/README.md":                          {Data: []byte("not a module")},
		"_assets/stylesheets/site.css":                           {Data: []byte("body{}")},
	}
}

func TestScan(t *testing.T) {
	entries, err := Scan(siteFS(), Options{Dir: "_assets/javascripts"})
	if err != nil {
		t.Fatalf("Scan error = %v", err)
	}

	want := []Entry{
		{"./application", "_assets/javascripts/application.js", "_assets/javascripts/application.js"},
		{"./controllers/menu_controller", "_assets/javascripts/controllers/menu_controller.js", "_assets/javascripts/controllers/menu_controller.js"},
		{"./controllers/nav/tabs_controller", "_assets/javascripts/controllers/nav/tabs_controller.js", "_assets/javascripts/controllers/nav/tabs_controller.js"},
	}
	if len(entries) != len(want) {
		t.Fatalf("Scan returned %d entries, want %d: %+v", len(entries), len(want), entries)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry[%d] = %+v, want %+v", i, entries[i], want[i])
		}
	}
}

func TestScan_Options(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"url prefix", Options{Dir: "_assets/javascripts", URLPrefix: "/"}, "/_assets/javascripts/application.js"},
		{"cdn prefix", Options{Dir: "_assets/javascripts", URLPrefix: "https://cdn.example/site/"}, "https://cdn.example/site/_assets/javascripts/application.js"},
		{"trailing slash dir", Options{Dir: "_assets/javascripts/"}, "_assets/javascripts/application.js"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := Scan(siteFS(), tt.opts)
			if err != nil {
				t.Fatalf("Scan error = %v", err)
			}
			if entries[0].URL != tt.want {
				t.Errorf("URL = %q, want %q", entries[0].URL, tt.want)
			}
			if entries[0].Specifier != "./application" {
				t.Errorf("Specifier = %q, want ./application", entries[0].Specifier)
			}
		})
	}
}

func TestScan_Fingerprint(t *testing.T) {
	entries, err := Scan(siteFS(), Options{Dir: "_assets/javascripts", Fingerprint: true})
	if err != nil {
		t.Fatalf("Scan error = %v", err)
	}
	u := entries[0].URL
	prefix := "_assets/javascripts/application.js?v="
	if !strings.HasPrefix(u, prefix) || len(u) != len(prefix)+10 {
		t.Errorf("fingerprinted URL = %q", u)
	}
	if entries[0].URL == entries[1].URL {
		t.Error("different files should not share a URL")
	}
}

func TestScan_MissingDir(t *testing.T) {
	entries, err := Scan(siteFS(), Options{Dir: "_assets/missing"})
	if err != nil {
		t.Fatalf("Scan error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries for missing dir", len(entries))
	}
}

func TestApply_MergesIntoExisting(t *testing.T) {
	data := map[string]any{
		"importmap": map[string]any{
			"imports": map[string]any{
				"@hotwired/stimulus":            "https://cdn.example/stimulus.js",
				"./controllers/menu_controller": "stale.js",
			},
		},
	}
	entries := []Entry{{Specifier: "./controllers/menu_controller", URL: "_assets/javascripts/controllers/menu_controller.js"}}

	if err := Apply(data, entries); err != nil {
		t.Fatalf("Apply error = %v", err)
	}

	m, err := FromData(data)
	if err != nil {
		t.Fatalf("FromData error = %v", err)
	}
	if got := m.Imports["@hotwired/stimulus"]; got != "https://cdn.example/stimulus.js" {
		t.Errorf("existing key lost: %q", got)
	}
	if got := m.Imports["./controllers/menu_controller"]; got != "_assets/javascripts/controllers/menu_controller.js" {
		t.Errorf("generated key = %q", got)
	}
}

func TestApply_CreatesMissingLevels(t *testing.T) {
	data := map[string]any{}
	if err := Apply(data, []Entry{{Specifier: "./a", URL: "a.js"}}); err != nil {
		t.Fatalf("Apply error = %v", err)
	}
	if u, ok := mustFromData(t, data).Lookup("./a"); !ok || u != "a.js" {
		t.Errorf("Lookup = (%q, %v)", u, ok)
	}

	data = map[string]any{"importmap": map[string]any{}}
	if err := Apply(data, []Entry{{Specifier: "./b", URL: "b.js"}}); err != nil {
		t.Fatalf("Apply error = %v", err)
	}
	if _, ok := mustFromData(t, data).Lookup("./b"); !ok {
		t.Error("imports level not created")
	}
}

func TestApply_RejectsWrongShape(t *testing.T) {
	if err := Apply(map[string]any{"importmap": "nope"}, nil); err == nil {
		t.Error("expected error for scalar importmap data")
	}
	if err := Apply(map[string]any{"importmap": map[string]any{"imports": []any{"x"}}}, nil); err == nil {
		t.Error("expected error for list imports")
	}
}

func TestFromData_NonStringAddress(t *testing.T) {
	data := map[string]any{"importmap": map[string]any{"imports": map[string]any{"x": 1}}}
	if _, err := FromData(data); err == nil {
		t.Error("expected error for non-string address")
	}
}

func TestTag(t *testing.T) {
	m := &Map{Imports: map[string]string{"./evil": "</script><script>alert(1)</script>"}}
	tag, err := m.Tag()
	if err != nil {
		t.Fatalf("Tag error = %v", err)
	}
	s := string(tag)
	if !strings.HasPrefix(s, `<script type="importmap">`) || !strings.HasSuffix(s, "</script>") {
		t.Errorf("Tag = %q", s)
	}
	if strings.Count(s, "</script>") != 1 {
		t.Errorf("embedded </script> not escaped: %q", s)
	}

	body := strings.TrimSuffix(strings.TrimPrefix(s, `<script type="importmap">`), "</script>")
	var back Map
	if err := json.Unmarshal([]byte(body), &back); err != nil {
		t.Fatalf("tag body is not JSON: %v", err)
	}
	if back.Imports["./evil"] != m.Imports["./evil"] {
		t.Errorf("round trip mismatch: %q", back.Imports["./evil"])
	}
}

func TestJSON_NilMap(t *testing.T) {
	var m *Map
	b, err := m.JSON()
	if err != nil {
		t.Fatalf("JSON error = %v", err)
	}
	if !strings.Contains(string(b), `"imports": {}`) {
		t.Errorf("JSON = %s", b)
	}
}

func mustFromData(t *testing.T, data map[string]any) *Map {
	t.Helper()
	m, err := FromData(data)
	if err != nil {
		t.Fatalf("FromData error = %v", err)
	}
	return m
}
