package scorer

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// profilesFile is the YAML shape of a custom profile file.
type profilesFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// LoadProfiles reads custom weighting profiles from a YAML file and merges
// them over the built-ins. A custom profile with a built-in name replaces
// the built-in.
func LoadProfiles(path string) (map[string]Profile, error) {
	profiles := BuiltIn()
	if path == "" {
		return profiles, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "scorer: read profiles %s", path)
	}

	var f profilesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "scorer: parse profiles %s", path)
	}

	for _, p := range f.Profiles {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		profiles[p.Name] = p
	}
	return profiles, nil
}

// ByName resolves a profile by name from built-ins plus an optional custom
// profile file.
func ByName(name, profilesPath string) (Profile, error) {
	profiles, err := LoadProfiles(profilesPath)
	if err != nil {
		return Profile{}, err
	}
	p, ok := profiles[name]
	if !ok {
		return Profile{}, eris.Errorf("scorer: unknown profile %q", name)
	}
	return p, nil
}
