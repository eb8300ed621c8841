package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/spachava753/wikibench/internal/models"
)

// challengeFile is the on-disk shape of a challenge set.
//
//	name = "classic"
//
//	[[challenge]]
//	name = "bradawl"
//	page = "Bradawl"
//	url  = "https://en.wikipedia.org/wiki/Bradawl"
type challengeFile struct {
	Name       string             `toml:"name"`
	Challenges []models.Challenge `toml:"challenge"`
}

// Loader loads challenge sets from local paths.
type Loader struct{}

// NewLoader creates a new dataset loader.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadFromPath loads a challenge set from a .toml file, or merges every .toml
// file in a directory into one set named after the directory.
func (l *Loader) LoadFromPath(ctx context.Context, datasetPath string) (*models.ChallengeSet, error) {
	absPath, err := filepath.Abs(datasetPath)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	if !info.IsDir() {
		return l.loadFile(absPath)
	}

	entries, err := os.ReadDir(absPath)
	if err != nil {
		return nil, fmt.Errorf("reading dataset directory: %w", err)
	}

	set := &models.ChallengeSet{Name: filepath.Base(absPath)}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".toml" {
			continue
		}
		cs, err := l.loadFile(filepath.Join(absPath, entry.Name()))
		if err != nil {
			return nil, err
		}
		set.Challenges = append(set.Challenges, cs.Challenges...)
	}

	if len(set.Challenges) == 0 {
		return nil, fmt.Errorf("no challenges found in dataset %s", absPath)
	}
	return set, nil
}

func (l *Loader) loadFile(path string) (*models.ChallengeSet, error) {
	var f challengeFile
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("parsing challenge file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parsing challenge file %s: unknown key %q", path, undecoded[0].String())
	}

	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	for i := range f.Challenges {
		if f.Challenges[i].Name == "" {
			f.Challenges[i].Name = f.Challenges[i].Page
		}
	}
	if err := ValidateChallenges(f.Challenges); err != nil {
		return nil, fmt.Errorf("validating challenge file %s: %w", path, err)
	}
	if len(f.Challenges) == 0 {
		return nil, fmt.Errorf("no challenges found in %s", path)
	}
	return &models.ChallengeSet{Name: f.Name, Challenges: f.Challenges}, nil
}

// ValidateChallenges checks that every challenge names a start page and that
// challenge names are unique.
func ValidateChallenges(challenges []models.Challenge) error {
	var errs []error
	seen := make(map[string]bool)
	for i, c := range challenges {
		if strings.TrimSpace(c.Page) == "" {
			errs = append(errs, fmt.Errorf("challenge %d: page is required", i))
		}
		if seen[c.Name] {
			errs = append(errs, fmt.Errorf("challenge %d: duplicate name %q", i, c.Name))
		}
		seen[c.Name] = true
	}
	return errors.Join(errs...)
}
