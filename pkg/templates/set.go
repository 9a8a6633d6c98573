package templates

import (
	"errors"

	"jordanella.com/royale-coach/internal/cv"
	"jordanella.com/royale-coach/internal/game"
)

// Set is what the recognizer needs from the card images
type Set struct {
	Templates []cv.CardTemplate
	Catalog   game.CardCatalog
	Cards     int // registered cards, including those without a usable image
}

// LoadSet loads the manifest (or the image directory) and samples every
// usable image. A manifest that cannot be read or parsed yields an empty set
// over base. Cards whose image fails to load are skipped and reported in the
// returned error while the rest of the set stays usable.
func LoadSet(manifestPath, basePath string, sampleSize int, base game.CardCatalog) (Set, error) {
	registry := NewRegistry(basePath, sampleSize)
	defer registry.UnloadAll()

	loadErr := registry.Load(manifestPath)
	if loadErr != nil && !errors.Is(loadErr, ErrPreloadFailed) {
		return Set{Catalog: base}, loadErr
	}

	set := Set{
		Catalog: registry.Catalog(base),
		Cards:   registry.Count(),
	}

	templates, err := registry.Templates(set.Catalog)
	set.Templates = templates
	return set, errors.Join(loadErr, err)
}
