package templates

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"jordanella.com/royale-coach/internal/game"
)

func writeCardImage(t *testing.T, path string, c color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 16; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		t.Fatal(err)
	}
}

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "cards.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRegistryLoadsManifest(t *testing.T) {
	dir := t.TempDir()
	writeCardImage(t, filepath.Join(dir, "hog.png"), color.RGBA{200, 40, 40, 255})
	writeCardImage(t, filepath.Join(dir, "zap.png"), color.RGBA{40, 40, 200, 255})
	manifest := writeManifest(t, dir, `
cards:
  - id: Hog
    path: hog.png
  - id: zap
    path: zap.png
    cost: 2
    roles: [spell, cycle]
    preload: true
`)

	registry := NewRegistry(dir, 8)
	if err := registry.Load(manifest); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if registry.Count() != 2 || !registry.Has("HOG") {
		t.Fatalf("ids = %v", registry.List())
	}
	if registry.CacheStats().Loads != 1 {
		t.Errorf("preload count = %d, want 1", registry.CacheStats().Loads)
	}

	templates, err := registry.Templates(game.DefaultCatalog())
	if err != nil {
		t.Fatalf("Templates: %v", err)
	}
	if len(templates) != 2 || templates[0].ID != "hog" || templates[1].ID != "zap" {
		t.Fatalf("templates = %+v", templates)
	}
	if templates[0].Cost != 4 {
		t.Errorf("hog cost = %d, want catalog cost 4", templates[0].Cost)
	}
	if templates[1].Cost != 2 || templates[1].Size != 8 || len(templates[1].Samples) != 64 {
		t.Errorf("zap template = %+v", templates[1])
	}

	catalog := registry.Catalog(game.DefaultCatalog())
	zap, ok := catalog.Lookup("zap")
	if !ok || zap.Cost != 2 || !zap.Roles.Has(game.RoleSpell) || !zap.Roles.Has(game.RoleCycle) {
		t.Errorf("zap catalog entry = %+v", zap)
	}
	if hog, _ := catalog.Lookup("hog"); hog.Roles != game.RoleWinCondition {
		t.Errorf("hog roles overwritten: %+v", hog)
	}
	if _, ok := game.DefaultCatalog().Lookup("zap"); ok {
		t.Error("Catalog must not modify the base catalog")
	}
}

func TestRegistryManifestValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing id", "cards:\n  - path: a.png\n"},
		{"missing path", "cards:\n  - id: a\n"},
		{"negative cost", "cards:\n  - id: a\n    path: a.png\n    cost: -1\n"},
		{"unknown role", "cards:\n  - id: a\n    path: a.png\n    roles: [tank]\n"},
		{"bad yaml", "cards: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			registry := NewRegistry(dir, 8)
			if err := registry.LoadFromFile(writeManifest(t, dir, tt.body)); err == nil {
				t.Fatal("expected an error")
			}
			if registry.Count() != 0 {
				t.Errorf("invalid manifest registered %d cards", registry.Count())
			}
		})
	}
}

func TestRegistryDirectoryFallback(t *testing.T) {
	dir := t.TempDir()
	writeCardImage(t, filepath.Join(dir, "Musketeer.png"), color.RGBA{90, 90, 90, 255})
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644)

	registry := NewRegistry(dir, 6)
	if err := registry.Load(filepath.Join(dir, "cards.yaml")); err != nil {
		t.Fatalf("Load: %v", err)
	}

	templates, err := registry.Templates(game.DefaultCatalog())
	if err != nil {
		t.Fatalf("Templates: %v", err)
	}
	if len(templates) != 1 || templates[0].ID != "musketeer" || templates[0].Cost != 4 {
		t.Fatalf("templates = %+v", templates)
	}
}

func TestRegistryEmptyDirectory(t *testing.T) {
	registry := NewRegistry(t.TempDir(), 6)
	if err := registry.Load(""); !errors.Is(err, ErrNoTemplates) {
		t.Fatalf("err = %v, want ErrNoTemplates", err)
	}
}

func TestRegistrySkipsMissingImages(t *testing.T) {
	dir := t.TempDir()
	writeCardImage(t, filepath.Join(dir, "log.png"), color.RGBA{120, 80, 40, 255})
	manifest := writeManifest(t, dir, "cards:\n  - id: log\n    path: log.png\n  - id: ghost\n    path: ghost.png\n")

	registry := NewRegistry(dir, 8)
	if err := registry.Load(manifest); err != nil {
		t.Fatalf("Load: %v", err)
	}

	templates, err := registry.Templates(nil)
	if err == nil {
		t.Fatal("expected an error for the missing image")
	}
	if len(templates) != 1 || templates[0].ID != "log" {
		t.Fatalf("templates = %+v", templates)
	}
}

func TestImageCacheHitsAndUnload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hog.png")
	writeCardImage(t, path, color.RGBA{10, 20, 30, 255})

	cache := NewImageCache()
	if err := cache.Register("hog", path, false); err != nil {
		t.Fatal(err)
	}

	if _, err := cache.Get("hog"); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Get("hog"); err != nil {
		t.Fatal(err)
	}
	stats := cache.Stats()
	if stats.Misses != 1 || stats.Hits != 1 || stats.Loads != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	cache.UnloadAll()
	if cache.Stats().Unloads != 1 {
		t.Fatalf("unloads = %d", cache.Stats().Unloads)
	}

	cache.Release("hog")
	if _, err := cache.Get("hog"); err == nil {
		t.Fatal("released image should be gone")
	}

	if err := cache.Register("ghost", filepath.Join(dir, "ghost.png"), true); err == nil {
		t.Fatal("preloading a missing file should fail")
	}
	if cache.Stats().PreloadFail != 1 {
		t.Fatalf("preload failures = %d", cache.Stats().PreloadFail)
	}
}

func TestRegistryRemove(t *testing.T) {
	registry := NewRegistry(t.TempDir(), 8)
	registry.Register(CardDefinition{ID: "Cannon", Path: "cannon.png"})

	if !registry.Remove("cannon") || registry.Remove("cannon") {
		t.Fatal("Remove should report the card once")
	}
	if registry.Count() != 0 {
		t.Fatal("card still registered")
	}
}
