package profile

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultProfilesYAML []byte

type seedFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// DefaultProfiles returns the built-in starter profiles.
func DefaultProfiles() ([]Profile, error) {
	var f seedFile
	if err := yaml.Unmarshal(defaultProfilesYAML, &f); err != nil {
		return nil, fmt.Errorf("failed to parse embedded default profiles: %w", err)
	}
	return f.Profiles, nil
}

// SeedDefaults inserts the built-in profiles when the profile table is empty.
// Existing installations are never touched.
func (s *Store) SeedDefaults(ctx context.Context) error {
	existing, err := s.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	defaults, err := DefaultProfiles()
	if err != nil {
		return err
	}
	for i := range defaults {
		if _, err := s.Create(ctx, &defaults[i]); err != nil {
			return fmt.Errorf("failed to seed profile %q: %w", defaults[i].Name, err)
		}
	}

	s.logger.Info().Int("count", len(defaults)).Msg("Seeded default language profiles")
	return nil
}
