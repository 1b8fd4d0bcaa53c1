// Package service contains the business logic layer of the application.
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, canonicalises, orchestrates
//	Repository (data layer)  → reads/writes the store
//
// UserService depends on repository.UserRepository, never on a concrete
// store, so tests run it against an in-memory fake.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/user-service/internal/apperror"
	"github.com/sakif/user-service/internal/model"
	"github.com/sakif/user-service/internal/repository"
	"github.com/sakif/user-service/internal/validate"
)

// Limits bounds search pagination.
type Limits struct {
	DefaultLimit int
	MaxLimit     int
}

// DefaultLimits are used when NewUserService gets a zero Limits.
var DefaultLimits = Limits{DefaultLimit: repository.DefaultLimit, MaxLimit: repository.MaxLimit}

// CreateUserInput is the payload of a create request.
type CreateUserInput struct {
	Name        string            `json:"name"          validate:"required,max=100"`
	Surname     string            `json:"surname"       validate:"required,max=100"`
	Email       string            `json:"email"         validate:"required,email,max=255"`
	Phone       *string           `json:"phone"`
	DateOfBirth *string           `json:"date_of_birth"`
	Gender      *string           `json:"gender"`
	Company     *string           `json:"company"       validate:"omitnil,max=200"`
	Salary      *float64          `json:"salary"        validate:"omitnil,gte=0"`
	AboutMe     string            `json:"about_me"      validate:"required"`
	Address     *model.Address    `json:"address"`
	CreditCard  *model.CreditCard `json:"credit_card"`
}

// UpdateUserInput is the payload of a partial update. Absent (or null)
// fields are left unchanged.
type UpdateUserInput struct {
	Name        *string           `json:"name"          validate:"omitnil,min=1,max=100"`
	Surname     *string           `json:"surname"       validate:"omitnil,min=1,max=100"`
	Email       *string           `json:"email"         validate:"omitnil,email,max=255"`
	Phone       *string           `json:"phone"`
	DateOfBirth *string           `json:"date_of_birth"`
	Gender      *string           `json:"gender"`
	Company     *string           `json:"company"       validate:"omitnil,max=200"`
	Salary      *float64          `json:"salary"        validate:"omitnil,gte=0"`
	AboutMe     *string           `json:"about_me"      validate:"omitnil,min=1"`
	Address     *model.Address    `json:"address"`
	CreditCard  *model.CreditCard `json:"credit_card"`
}

// SearchInput carries raw query parameters.
type SearchInput struct {
	Name            string
	Surname         string
	Email           string
	Gender          string
	DateOfBirth     string
	DateOfBirthFrom string
	DateOfBirthTo   string
	Limit           int
	Offset          int
}

// UserService validates input and drives the repository.
type UserService struct {
	repo    repository.UserRepository
	structs *validate.Structs
	limits  Limits
	logger  *slog.Logger
	now     func() time.Time
}

// NewUserService creates a UserService. A zero limits value selects
// DefaultLimits.
func NewUserService(repo repository.UserRepository, limits Limits, logger *slog.Logger) *UserService {
	if limits.DefaultLimit <= 0 || limits.MaxLimit <= 0 {
		limits = DefaultLimits
	}
	return &UserService{
		repo:    repo,
		structs: validate.NewStructs(),
		limits:  limits,
		logger:  logger,
		now:     time.Now,
	}
}

// Create validates, canonicalises and stores a new user with its optional
// address and card.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*model.UserDetails, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Surname = strings.TrimSpace(in.Surname)
	in.Email = strings.TrimSpace(in.Email)
	in.AboutMe = strings.TrimSpace(in.AboutMe)
	trimPtr(in.Company)
	trimAddress(in.Address)

	if err := s.structs.Check(in); err != nil {
		return nil, err
	}

	user := &model.UserDetails{
		User: model.User{
			Name:        in.Name,
			Surname:     in.Surname,
			Email:       in.Email,
			Phone:       in.Phone,
			DateOfBirth: in.DateOfBirth,
			Gender:      in.Gender,
			Company:     in.Company,
			Salary:      in.Salary,
			AboutMe:     in.AboutMe,
		},
		Address:    in.Address,
		CreditCard: in.CreditCard,
	}
	if err := s.canonicalize(&user.User.Phone, &user.User.DateOfBirth, &user.User.Gender, user.CreditCard); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, user); err != nil {
		s.logger.Warn("failed to create user",
			slog.String("email", in.Email),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user created",
		slog.String("id", user.ID),
		slog.String("email", user.Email),
		slog.Bool("address", user.Address != nil),
		slog.Bool("credit_card", user.CreditCard != nil),
	)
	return user, nil
}

// Get returns the aggregate for id.
func (s *UserService) Get(ctx context.Context, id string) (*model.UserDetails, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	return s.repo.GetByID(ctx, id)
}

// List returns every user.
func (s *UserService) List(ctx context.Context) ([]model.UserDetails, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list users", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// Search validates the filters, then queries the store. Gender, dates and
// the date range are checked before the repository is called.
func (s *UserService) Search(ctx context.Context, in SearchInput) ([]model.UserDetails, error) {
	filter := model.UserFilter{
		Name:    strings.TrimSpace(in.Name),
		Surname: strings.TrimSpace(in.Surname),
		Email:   strings.TrimSpace(in.Email),
	}

	if g := strings.TrimSpace(in.Gender); g != "" {
		gender, err := validate.Gender("gender", g)
		if err != nil {
			return nil, err
		}
		filter.Gender = gender
	}
	if d := strings.TrimSpace(in.DateOfBirth); d != "" {
		parsed, err := validate.ParseDate("date_of_birth", d)
		if err != nil {
			return nil, err
		}
		filter.DateOfBirth = parsed.Format(validate.DateLayout)
	}

	from, to, err := validate.DateRange(
		"date_of_birth_from", strings.TrimSpace(in.DateOfBirthFrom),
		"date_of_birth_to", strings.TrimSpace(in.DateOfBirthTo),
	)
	if err != nil {
		return nil, err
	}
	filter.DateOfBirthFrom, filter.DateOfBirthTo = from, to

	opts := repository.ListOptions{Limit: in.Limit, Offset: in.Offset}.
		Clamp(s.limits.DefaultLimit, s.limits.MaxLimit)

	users, err := s.repo.Search(ctx, filter, opts)
	if err != nil {
		s.logger.Error("failed to search users", slog.String("error", err.Error()))
		return nil, fmt.Errorf("searching users: %w", err)
	}

	s.logger.Info("search users completed",
		slog.Int("found", len(users)),
		slog.Int("limit", opts.Limit),
		slog.Int("offset", opts.Offset),
	)
	return users, nil
}

// Update validates the present fields of in and applies them.
func (s *UserService) Update(ctx context.Context, id string, in UpdateUserInput) (*model.UserDetails, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}

	trimPtr(in.Name)
	trimPtr(in.Surname)
	trimPtr(in.Email)
	trimPtr(in.AboutMe)
	trimPtr(in.Company)
	trimAddress(in.Address)

	if err := s.structs.Check(in); err != nil {
		return nil, err
	}
	if err := s.canonicalize(&in.Phone, &in.DateOfBirth, &in.Gender, in.CreditCard); err != nil {
		return nil, err
	}

	patch := model.UserPatch{
		Name:        in.Name,
		Surname:     in.Surname,
		Email:       in.Email,
		Phone:       in.Phone,
		DateOfBirth: in.DateOfBirth,
		Gender:      in.Gender,
		Company:     in.Company,
		Salary:      in.Salary,
		AboutMe:     in.AboutMe,
		Address:     in.Address,
		CreditCard:  in.CreditCard,
	}

	user, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user updated",
		slog.String("id", id),
		slog.Bool("address", patch.Address != nil),
		slog.Bool("credit_card", patch.CreditCard != nil),
	)
	return user, nil
}

// Delete removes the user and its child records.
func (s *UserService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "user ID is required")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("user deleted", slog.String("id", id))
	return nil
}

// Stats returns the population total and per-gender counts.
func (s *UserService) Stats(ctx context.Context) (*model.Stats, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting users: %w", err)
	}

	dist := make(map[string]int, len(model.Genders))
	for _, g := range model.Genders {
		n, err := s.repo.CountByGender(ctx, string(g))
		if err != nil {
			return nil, fmt.Errorf("counting %s users: %w", g, err)
		}
		dist[string(g)] = n
	}

	return &model.Stats{
		Total:              total,
		GenderDistribution: dist,
		Timestamp:          s.now().UTC(),
	}, nil
}

// canonicalize runs the typed field validators and rewrites each present
// value to its canonical form in place.
func (s *UserService) canonicalize(phone, dob, gender **string, card *model.CreditCard) error {
	if *phone != nil {
		v, err := validate.Phone("phone", **phone)
		if err != nil {
			return err
		}
		*phone = &v
	}
	if *dob != nil {
		v, err := validate.DateOfBirth("date_of_birth", **dob, s.now())
		if err != nil {
			return err
		}
		*dob = &v
	}
	if *gender != nil {
		v, err := validate.Gender("gender", **gender)
		if err != nil {
			return err
		}
		*gender = &v
	}
	if card != nil {
		num, err := validate.CardNumber("credit_card.num", card.Num)
		if err != nil {
			return err
		}
		cvv, err := validate.CVV("credit_card.cvv", strings.TrimSpace(card.CVV))
		if err != nil {
			return err
		}
		exp, err := validate.Expiry("credit_card.exp_date", strings.TrimSpace(card.ExpDate))
		if err != nil {
			return err
		}
		card.Num, card.CVV, card.ExpDate = num, cvv, exp
	}
	return nil
}

// trimAddress strips surrounding whitespace from every address field so a
// blank "   " value fails the required check instead of being stored.
func trimAddress(a *model.Address) {
	if a == nil {
		return
	}
	a.Country = strings.TrimSpace(a.Country)
	a.City = strings.TrimSpace(a.City)
	a.Street = strings.TrimSpace(a.Street)
	a.FlatHouse = strings.TrimSpace(a.FlatHouse)
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}
