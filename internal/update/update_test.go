package update

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// serveRelease stands in for the GitHub API, counting requests so
// cache behavior is observable.
func serveRelease(t *testing.T, tag string, hits *int) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			*hits++
			fmt.Fprintf(w,
				`{"tag_name":%q,"html_url":"https://github.com/wesm/ocusage/releases/tag/%s"}`,
				tag, tag,
			)
		},
	))
	t.Cleanup(srv.Close)

	old := apiURL
	apiURL = srv.URL
	t.Cleanup(func() { apiURL = old })
}

func TestCheckForUpdateNewer(t *testing.T) {
	var hits int
	serveRelease(t, "v0.2.0", &hits)

	info, err := CheckForUpdate("0.1.0", true, t.TempDir())
	if err != nil {
		t.Fatalf("CheckForUpdate: %v", err)
	}
	if info == nil {
		t.Fatal("expected update info, got nil")
	}
	if info.LatestVersion != "v0.2.0" {
		t.Errorf("latest = %q, want v0.2.0", info.LatestVersion)
	}
	if info.ReleaseURL == "" {
		t.Error("release URL not carried through")
	}
	if info.IsDevBuild {
		t.Error("0.1.0 flagged as dev build")
	}
}

func TestCheckForUpdateUpToDate(t *testing.T) {
	var hits int
	serveRelease(t, "v0.2.0", &hits)

	info, err := CheckForUpdate("0.2.0", true, t.TempDir())
	if err != nil {
		t.Fatalf("CheckForUpdate: %v", err)
	}
	if info != nil {
		t.Errorf("up-to-date build reported update: %+v", info)
	}
}

func TestCheckForUpdateDevBuild(t *testing.T) {
	var hits int
	serveRelease(t, "v0.2.0", &hits)

	info, err := CheckForUpdate("dev", true, t.TempDir())
	if err != nil {
		t.Fatalf("CheckForUpdate: %v", err)
	}
	if info == nil {
		t.Fatal("dev build should always report the latest release")
	}
	if !info.IsDevBuild {
		t.Error("IsDevBuild = false for dev build")
	}
}

func TestCheckForUpdateUsesCache(t *testing.T) {
	var hits int
	serveRelease(t, "v0.2.0", &hits)
	cacheDir := t.TempDir()

	first, err := CheckForUpdate("0.1.0", false, cacheDir)
	if err != nil {
		t.Fatalf("first check: %v", err)
	}
	second, err := CheckForUpdate("0.1.0", false, cacheDir)
	if err != nil {
		t.Fatalf("second check: %v", err)
	}

	if hits != 1 {
		t.Errorf("API hit %d times, want 1", hits)
	}
	if first == nil || second == nil {
		t.Fatal("both checks should report the update")
	}
	if second.LatestVersion != first.LatestVersion {
		t.Errorf(
			"cached version %q differs from fetched %q",
			second.LatestVersion, first.LatestVersion,
		)
	}
	if second.ReleaseURL != first.ReleaseURL {
		t.Errorf(
			"cached URL %q differs from fetched %q",
			second.ReleaseURL, first.ReleaseURL,
		)
	}
}

func TestCheckForUpdateForceBypassesCache(t *testing.T) {
	var hits int
	serveRelease(t, "v0.2.0", &hits)
	cacheDir := t.TempDir()

	for i := 0; i < 2; i++ {
		if _, err := CheckForUpdate("0.1.0", true, cacheDir); err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
	}
	if hits != 2 {
		t.Errorf("API hit %d times, want 2", hits)
	}
}

func TestCheckForUpdateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusForbidden)
		},
	))
	t.Cleanup(srv.Close)
	old := apiURL
	apiURL = srv.URL
	t.Cleanup(func() { apiURL = old })

	if _, err := CheckForUpdate("0.1.0", true, t.TempDir()); err == nil {
		t.Fatal("expected error from failing API")
	}
}

func TestIsDevBuildVersion(t *testing.T) {
	tests := []struct {
		version string
		want    bool
	}{
		{"dev", true},
		{"unknown", true},
		{"", true},
		{"0.1.0", false},
		{"v0.1.0", false},
		{"0.1.0-2-gabcdef", true},
		{"v0.1.0-2-gabcdef-dirty", true},
		{"0.1.0-rc1", false},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			got := IsDevBuildVersion(tt.version)
			if got != tt.want {
				t.Errorf(
					"IsDevBuildVersion(%q) = %v, want %v",
					tt.version, got, tt.want,
				)
			}
		})
	}
}

func TestIsNewer(t *testing.T) {
	tests := []struct {
		v1, v2 string
		want   bool
	}{
		{"0.2.0", "0.1.0", true},
		{"0.1.0", "0.2.0", false},
		{"0.1.0", "0.1.0", false},
		{"1.0.0", "0.9.9", true},
		{"0.1.0-rc2", "0.1.0-rc1", true},
		{"0.1.0", "0.1.0-rc1", true},
	}
	for _, tt := range tests {
		name := tt.v1 + "_vs_" + tt.v2
		t.Run(name, func(t *testing.T) {
			got := isNewer(tt.v1, tt.v2)
			if got != tt.want {
				t.Errorf(
					"isNewer(%q, %q) = %v, want %v",
					tt.v1, tt.v2, got, tt.want,
				)
			}
		})
	}
}

func TestNormalizeSemver(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"0.1.0", "v0.1.0"},
		{"v0.1.0", "v0.1.0"},
		{"0.1.0-rc1", "v0.1.0-rc.1"},
		{"0.1.0-2-gabcdef", "v0.1.0"},
		{"0.1.0-2-gabcdef-dirty", "v0.1.0"},
		{"1.0.0-beta10", "v1.0.0-beta.10"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := normalizeSemver(tt.input)
			if got != tt.want {
				t.Errorf(
					"normalizeSemver(%q) = %q, want %q",
					tt.input, got, tt.want,
				)
			}
		})
	}
}

func TestCacheRoundtrip(t *testing.T) {
	dir := t.TempDir()

	saveCache("v1.2.3", "https://github.com/wesm/ocusage/releases/tag/v1.2.3", dir)

	cached, err := loadCache(dir)
	if err != nil {
		t.Fatalf("loadCache: %v", err)
	}
	if cached.Version != "v1.2.3" {
		t.Errorf("got version %q, want %q", cached.Version, "v1.2.3")
	}
	if cached.URL == "" {
		t.Error("release URL not persisted")
	}
}
