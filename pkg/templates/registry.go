package templates

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"jordanella.com/royale-coach/internal/cv"
	"jordanella.com/royale-coach/internal/game"
)

var (
	// ErrNoTemplates is returned when neither a manifest nor image files were found
	ErrNoTemplates = errors.New("no card templates found")
	// ErrPreloadFailed marks manifest cards whose image could not be preloaded; the cards stay registered
	ErrPreloadFailed = errors.New("card image preload failed")
)

// CardDefinition represents a card in the manifest
type CardDefinition struct {
	ID      string   `yaml:"id"`
	Path    string   `yaml:"path"`
	Cost    int      `yaml:"cost,omitempty"`
	Roles   []string `yaml:"roles,omitempty"`
	Preload bool     `yaml:"preload,omitempty"` // Load image at startup
}

// Manifest represents the structure of cards.yaml
type Manifest struct {
	Cards []CardDefinition `yaml:"cards"`
}

var roleNames = map[string]game.CardRole{
	"spell":        game.RoleSpell,
	"building":     game.RoleBuilding,
	"defensive":    game.RoleDefensive,
	"wincondition": game.RoleWinCondition,
	"cycle":        game.RoleCycle,
}

// parseRole accepts any case with or without underscores: WinCondition, win_condition
func parseRole(name string) (game.CardRole, bool) {
	role, ok := roleNames[strings.ReplaceAll(strings.ToLower(name), "_", "")]
	return role, ok
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
}

// Registry holds the card images the recognizer matches hand slots against
type Registry struct {
	mu         sync.RWMutex
	cards      map[string]CardDefinition
	basePath   string // Base path for card image files
	sampleSize int
	imageCache *ImageCache
}

// NewRegistry creates a registry resolving image paths against basePath
func NewRegistry(basePath string, sampleSize int) *Registry {
	return &Registry{
		cards:      make(map[string]CardDefinition),
		basePath:   basePath,
		sampleSize: sampleSize,
		imageCache: NewImageCache(),
	}
}

// Load reads manifestPath when it exists, otherwise every image in the base directory
func (r *Registry) Load(manifestPath string) error {
	if manifestPath != "" {
		if _, err := os.Stat(manifestPath); err == nil {
			return r.LoadFromFile(manifestPath)
		}
	}
	return r.LoadFromDirectory(r.basePath)
}

// LoadFromFile loads card definitions from a YAML manifest
func (r *Registry) LoadFromFile(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read card manifest %s: %w", filePath, err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("failed to unmarshal card manifest: %w", err)
	}

	for i, def := range manifest.Cards {
		if def.ID == "" {
			return fmt.Errorf("card %d: id cannot be empty", i+1)
		}
		if def.Path == "" {
			return fmt.Errorf("card %d (%s): path cannot be empty", i+1, def.ID)
		}
		if def.Cost < 0 {
			return fmt.Errorf("card %d (%s): cost cannot be negative", i+1, def.ID)
		}
		for _, role := range def.Roles {
			if _, ok := parseRole(role); !ok {
				return fmt.Errorf("card %d (%s): unknown role %q", i+1, def.ID, role)
			}
		}
	}

	// Preload failures are reported but the cards stay registered
	var preloadErrs []error
	for _, def := range manifest.Cards {
		if !filepath.IsAbs(def.Path) {
			def.Path = filepath.Join(r.basePath, def.Path)
		}
		if err := r.Register(def); err != nil {
			preloadErrs = append(preloadErrs, err)
		}
	}
	if len(preloadErrs) > 0 {
		return fmt.Errorf("%w: %w", ErrPreloadFailed, errors.Join(preloadErrs...))
	}
	return nil
}

// LoadFromDirectory registers every image file in dirPath, naming each
// card after its lowercased file name
func (r *Registry) LoadFromDirectory(dirPath string) error {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return fmt.Errorf("failed to read card directory %s: %w", dirPath, err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !imageExtensions[ext] {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if err := r.Register(CardDefinition{ID: id, Path: filepath.Join(dirPath, entry.Name())}); err != nil {
			return err
		}
		loaded++
	}

	if loaded == 0 {
		return fmt.Errorf("%w in %s", ErrNoTemplates, dirPath)
	}
	return nil
}

// Register adds a card programmatically. Ids are stored lowercased.
func (r *Registry) Register(def CardDefinition) error {
	if def.ID == "" {
		return fmt.Errorf("card id cannot be empty")
	}
	def.ID = strings.ToLower(def.ID)

	r.mu.Lock()
	r.cards[def.ID] = def
	r.mu.Unlock()

	return r.imageCache.Register(def.ID, def.Path, def.Preload)
}

// Get retrieves a card definition by id
func (r *Registry) Get(id string) (CardDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.cards[strings.ToLower(id)]
	return def, ok
}

// Has checks if a card exists in the registry
func (r *Registry) Has(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// List returns all card ids in sorted order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.cards))
	for id := range r.cards {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of cards in the registry
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cards)
}

// Remove removes a card and its cached image
func (r *Registry) Remove(id string) bool {
	id = strings.ToLower(id)

	r.mu.Lock()
	_, ok := r.cards[id]
	delete(r.cards, id)
	r.mu.Unlock()

	if ok {
		r.imageCache.Release(id)
	}
	return ok
}

// Templates samples every registered image into a recognizer template.
// Costs missing from the manifest come from catalog. Cards whose image
// cannot be loaded are skipped and reported in the joined error.
func (r *Registry) Templates(catalog game.CardCatalog) ([]cv.CardTemplate, error) {
	var (
		templates []cv.CardTemplate
		errs      []error
	)

	for _, id := range r.List() {
		def, ok := r.Get(id)
		if !ok {
			continue
		}

		img, err := r.imageCache.Get(id)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		template, err := cv.NewCardTemplate(id, r.costOf(def, catalog), img, r.sampleSize)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		templates = append(templates, template)
	}

	if len(templates) == 0 && len(errs) == 0 {
		errs = append(errs, ErrNoTemplates)
	}
	return templates, errors.Join(errs...)
}

// Catalog returns base extended with the manifest's costs and roles.
// Entries without a cost or roles keep whatever base says.
func (r *Registry) Catalog(base game.CardCatalog) game.CardCatalog {
	catalog := make(game.CardCatalog, len(base)+r.Count())
	for id, info := range base {
		catalog[id] = info
	}

	for _, id := range r.List() {
		def, _ := r.Get(id)
		info, ok := catalog[id]
		if !ok {
			info = game.CardInfo{ID: id}
		}
		if def.Cost > 0 {
			info.Cost = def.Cost
		}
		if len(def.Roles) > 0 {
			info.Roles = game.RoleNone
			for _, role := range def.Roles {
				r, _ := parseRole(role)
				info.Roles |= r
			}
		}
		catalog[id] = info
	}
	return catalog
}

// ImageCache returns the image cache
func (r *Registry) ImageCache() *ImageCache {
	return r.imageCache
}

// PreloadAll preloads all cards marked for preloading
func (r *Registry) PreloadAll() error {
	return r.imageCache.PreloadAll()
}

// UnloadAll releases every cached image; templates already built are unaffected
func (r *Registry) UnloadAll() {
	r.imageCache.UnloadAll()
}

// CacheStats returns image cache statistics
func (r *Registry) CacheStats() CacheStats {
	return r.imageCache.Stats()
}

func (r *Registry) costOf(def CardDefinition, catalog game.CardCatalog) int {
	if def.Cost > 0 {
		return def.Cost
	}
	if info, ok := catalog.Lookup(def.ID); ok {
		return info.Cost
	}
	return 0
}
