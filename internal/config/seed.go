package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/directory"
)

type directorySeed struct {
	Users []struct {
		ID        string `yaml:"id"`
		Name      string `yaml:"name"`
		Email     string `yaml:"email"`
		Role      string `yaml:"role"`
		Title     string `yaml:"title"`
		Location  string `yaml:"location"`
		ReportsTo string `yaml:"reports_to"`
	} `yaml:"users"`
}

// LoadDirectorySeed reads directory records used to bootstrap local and
// test environments. An empty path loads nothing.
func LoadDirectorySeed(path string) ([]directory.User, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read directory seed: %w", err)
	}
	return ParseDirectorySeed(raw)
}

func ParseDirectorySeed(raw []byte) ([]directory.User, error) {
	var seed directorySeed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("parse directory seed: %w", err)
	}

	now := time.Now().UTC()
	users := make([]directory.User, 0, len(seed.Users))
	for i, u := range seed.Users {
		role := directory.Role(u.Role)
		if u.ID == "" || u.Name == "" {
			return nil, fmt.Errorf("directory seed entry %d: id and name are required", i)
		}
		if !role.IsValid() {
			return nil, fmt.Errorf("directory seed entry %d: unknown role %q", i, u.Role)
		}
		users = append(users, directory.User{
			ID:        u.ID,
			Name:      u.Name,
			Email:     u.Email,
			Role:      role,
			Title:     u.Title,
			Location:  u.Location,
			ReportsTo: u.ReportsTo,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return users, nil
}
