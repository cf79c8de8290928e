// Package seed loads the demo users and photos the service starts with.
package seed

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vbonduro/clandphoto/internal/domain"
)

//go:embed demo.yaml
var demoYAML []byte

type userFixture struct {
	ID      string          `yaml:"id"`
	Name    string          `yaml:"name"`
	Email   string          `yaml:"email"`
	Role    string          `yaml:"role"`
	Avatar  string          `yaml:"avatar"`
	Status  string          `yaml:"status"`
	Created time.Duration   `yaml:"created"`
	Access  []time.Duration `yaml:"access"`
}

type photoFixture struct {
	ID           string        `yaml:"id"`
	URL          string        `yaml:"url"`
	Taken        time.Duration `yaml:"taken"`
	User         string        `yaml:"user"`
	Description  string        `yaml:"description"`
	Tags         []string      `yaml:"tags"`
	VehicleModel string        `yaml:"vehicle_model"`
	LicensePlate string        `yaml:"license_plate"`
	Location     string        `yaml:"location"`
}

type Fixtures struct {
	UserFixtures  []userFixture  `yaml:"users"`
	PhotoFixtures []photoFixture `yaml:"photos"`
}

// Load reads fixtures from path, or the embedded demo data when path is
// empty.
func Load(path string) (*Fixtures, error) {
	data := demoYAML
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read seed file: %w", err)
		}
	}
	return Parse(data)
}

func Parse(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed data: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Fixtures) validate() error {
	ids := make(map[string]bool, len(f.UserFixtures))
	for i, u := range f.UserFixtures {
		if u.ID == "" || u.Name == "" {
			return fmt.Errorf("seed user %d: id and name are required", i)
		}
		if ids[u.ID] {
			return fmt.Errorf("seed user %d: duplicate id %q", i, u.ID)
		}
		ids[u.ID] = true
		if !domain.Role(u.Role).Valid() {
			return fmt.Errorf("seed user %q: invalid role %q", u.ID, u.Role)
		}
		if u.Status != "" && !domain.UserStatus(u.Status).Valid() {
			return fmt.Errorf("seed user %q: invalid status %q", u.ID, u.Status)
		}
	}
	for i, p := range f.PhotoFixtures {
		if p.ID == "" || p.URL == "" {
			return fmt.Errorf("seed photo %d: id and url are required", i)
		}
	}
	return nil
}

// Users materialises the user fixtures relative to now, in file order.
func (f *Fixtures) Users(now time.Time) []*domain.User {
	users := make([]*domain.User, 0, len(f.UserFixtures))
	for _, u := range f.UserFixtures {
		status := domain.UserStatus(u.Status)
		if status == "" {
			status = domain.StatusPending
		}
		logs := make([]time.Time, 0, len(u.Access))
		for _, ago := range u.Access {
			logs = append(logs, now.Add(-ago))
		}
		users = append(users, &domain.User{
			ID:         u.ID,
			Name:       u.Name,
			Email:      u.Email,
			Role:       domain.Role(u.Role),
			AvatarURL:  u.Avatar,
			Status:     status,
			CreatedAt:  now.Add(-u.Created),
			AccessLogs: logs,
		})
	}
	return users
}

// Photos materialises the photo fixtures relative to now, in file order.
func (f *Fixtures) Photos(now time.Time) []domain.PhotoEntry {
	photos := make([]domain.PhotoEntry, 0, len(f.PhotoFixtures))
	for _, p := range f.PhotoFixtures {
		photos = append(photos, domain.PhotoEntry{
			ID:           p.ID,
			ImageURL:     p.URL,
			Timestamp:    now.Add(-p.Taken),
			UserID:       p.User,
			Description:  p.Description,
			Tags:         append([]string(nil), p.Tags...),
			VehicleModel: p.VehicleModel,
			LicensePlate: p.LicensePlate,
			Location:     p.Location,
		})
	}
	return photos
}

// PrimaryAdmin returns the first administrator in the fixtures, which
// survives a data wipe. It is nil when there is none.
func (f *Fixtures) PrimaryAdmin(now time.Time) *domain.User {
	for _, u := range f.Users(now) {
		if u.Role == domain.RoleAdmin {
			return u
		}
	}
	return nil
}
