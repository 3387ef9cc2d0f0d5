// Package seed loads the staff directory and bootstrap admin accounts from YAML.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"solveit/internal/dto"
	"solveit/internal/model"
	"solveit/internal/repository"
	"solveit/internal/service"
	pkgerrors "solveit/pkg/errors"
)

const minAdminPasswordLength = 8

// Directory seed document
type Directory struct {
	Admins []Admin `yaml:"admins"`
	Staff  []Staff `yaml:"staff"`
}

// Admin bootstrap administrator; password is taken verbatim
type Admin struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// Staff directory entry; a login account with a temporary password is created alongside
type Staff struct {
	Name       string `yaml:"name"`
	Email      string `yaml:"email"`
	Phone      string `yaml:"phone"`
	Department string `yaml:"department"`
	Rank       string `yaml:"rank"`
	CollegeID  string `yaml:"college_id"`
}

// Credential temporary password handed out for a new staff account
type Credential struct {
	Email        string
	TempPassword string
}

// Result outcome of a seeding run
type Result struct {
	AdminsCreated int
	StaffCreated  int
	Skipped       []string
	Credentials   []Credential
}

// Load reads a seed file from disk
func Load(path string) (*Directory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a seed document, rejecting unknown keys
func Parse(r io.Reader) (*Directory, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var dir Directory
	if err := dec.Decode(&dir); err != nil {
		if errors.Is(err, io.EOF) {
			return &dir, nil
		}
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	return &dir, nil
}

// Seeder writes a Directory through the normal services, so entries get the same validation as the API
type Seeder struct {
	repo   *repository.Repository
	staff  service.StaffService
	logger *zap.Logger
}

// NewSeeder creates a Seeder
func NewSeeder(repo *repository.Repository, staff service.StaffService, logger *zap.Logger) *Seeder {
	return &Seeder{repo: repo, staff: staff, logger: logger.Named("seed")}
}

// Run creates every missing account. Existing emails are skipped so the run can be repeated.
func (s *Seeder) Run(ctx context.Context, dir *Directory) (*Result, error) {
	res := &Result{}

	for i, a := range dir.Admins {
		created, err := s.createAdmin(ctx, a)
		if err != nil {
			return res, fmt.Errorf("admins[%d]: %w", i, err)
		}
		if created {
			res.AdminsCreated++
		} else {
			res.Skipped = append(res.Skipped, a.Email)
		}
	}

	for i, st := range dir.Staff {
		out, err := s.staff.Create(ctx, &dto.CreateStaffRequest{
			Name:       st.Name,
			Email:      st.Email,
			Phone:      st.Phone,
			Department: st.Department,
			Rank:       st.Rank,
			CollegeID:  st.CollegeID,
		}, "")
		switch {
		case errors.Is(err, service.ErrEmailExists):
			res.Skipped = append(res.Skipped, st.Email)
			continue
		case err != nil:
			return res, fmt.Errorf("staff[%d] %s: %w", i, st.Email, err)
		}
		res.StaffCreated++
		res.Credentials = append(res.Credentials, Credential{Email: out.Staff.Email, TempPassword: out.TempPassword})
	}

	s.logger.Info("seed complete",
		zap.Int("admins_created", res.AdminsCreated),
		zap.Int("staff_created", res.StaffCreated),
		zap.Int("skipped", len(res.Skipped)))
	return res, nil
}

func (s *Seeder) createAdmin(ctx context.Context, a Admin) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(a.Email))
	name := strings.TrimSpace(a.Name)
	if email == "" {
		return false, pkgerrors.Invalid("email", "is required")
	}
	if name == "" {
		return false, pkgerrors.Invalid("name", "is required")
	}
	if len(a.Password) < minAdminPasswordLength {
		return false, pkgerrors.Invalid("password", "must be at least %d characters", minAdminPasswordLength)
	}

	if _, err := s.repo.User.GetByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	err = s.repo.User.Create(ctx, &model.User{
		Name:         name,
		Email:        email,
		Role:         model.RoleAdmin,
		PasswordHash: string(hash),
		IsActive:     true,
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, nil
	}
	return err == nil, err
}
