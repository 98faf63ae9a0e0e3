package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Site is one publishing target.
type Site struct {
	ID          int    `yaml:"id"`
	Name        string `yaml:"name"`
	URL         string `yaml:"url"`
	Username    string `yaml:"username"`
	AppPassword string `yaml:"app_password"`
	AuthorID    int    `yaml:"author_id"`
	CategoryID  int    `yaml:"category_id"`
	Status      string `yaml:"status"`
	KeywordFile string `yaml:"keyword_file"`
}

type sitesFile struct {
	Sites []Site `yaml:"sites"`
}

// LoadSites reads the multi-site YAML file. Defaults: status "publish",
// author 1. Site IDs must be unique.
func LoadSites(path string) ([]Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read sites file %s: %w", path, err)
	}

	var sf sitesFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("config: parse sites file %s: %w", path, err)
	}
	if len(sf.Sites) == 0 {
		return nil, fmt.Errorf("config: no sites defined in %s", path)
	}

	seen := make(map[int]bool, len(sf.Sites))
	for i := range sf.Sites {
		s := &sf.Sites[i]
		if s.URL == "" || s.Username == "" || s.AppPassword == "" {
			return nil, fmt.Errorf("config: site %q missing url/username/app_password", s.Name)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("config: duplicate site id %d", s.ID)
		}
		seen[s.ID] = true
		if s.Status == "" {
			s.Status = "publish"
		}
		if s.AuthorID == 0 {
			s.AuthorID = 1
		}
	}
	return sf.Sites, nil
}
