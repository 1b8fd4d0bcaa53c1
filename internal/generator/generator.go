// Package generator produces realistic synthetic users for seeding and churn.
//
// Every generated record passes the same validators as API input, so the
// churn scheduler can push it straight into the repository.
package generator

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/sakif/user-service/internal/model"
	"github.com/sakif/user-service/internal/validate"
)

const (
	minAge = 18
	maxAge = 80

	minSalary = 30000.0
	maxSalary = 200000.0

	// employedChance is the probability of a user having a company and salary.
	employedChance = 0.7
)

var emailDomains = []string{
	"gmail.com", "yahoo.com", "hotmail.com", "outlook.com",
	"company.com", "example.org", "test.edu", "business.net",
}

// BioWriter writes the "about me" text of a user.
type BioWriter interface {
	Bio(gender string, company *string) string
}

// Generator builds synthetic users. It is safe for concurrent use.
//
// WHY A MUTEX?
// A *gofakeit.Faker wraps a single math/rand source, and that source is not
// safe for concurrent use. The churn loop and startup seeding could both
// call User, so every call holds mu for the whole record. Holding it for the
// whole record also keeps a seeded stream reproducible: one User call always
// consumes the same run of random numbers.
type Generator struct {
	mu    sync.Mutex
	faker *gofakeit.Faker // seeded; every random choice goes through it
	bio   BioWriter       // writes AboutMe once the rest of the user exists
	now   func() time.Time
}

// Option customises a Generator.
type Option func(*Generator)

// WithBioWriter replaces the template-based biography writer.
func WithBioWriter(w BioWriter) Option {
	return func(g *Generator) { g.bio = w }
}

// WithClock sets the reference time for birth and expiry dates.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// New creates a Generator. A zero seed is replaced by one derived from the
// clock; any other seed yields a deterministic stream.
func New(seed uint64, opts ...Option) *Generator {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	faker := gofakeit.New(seed)

	g := &Generator{
		faker: faker,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.bio == nil {
		g.bio = NewTemplateBio(faker)
	}
	return g
}

// User returns one complete user with an address and a credit card.
//
// FIELD RULES:
//   - gender is drawn first; the first name list follows from it
//   - email is "<first>.<last><n>@<domain>", name parts lowercased and
//     stripped to [a-z0-9]
//   - the birth year lies minAge to maxAge years before g.now()
//   - about 70% of users get a company and a salary, the rest get neither
//   - the bio is written last so it can mention the company
func (g *Generator) User() *model.UserDetails {
	g.mu.Lock()
	defer g.mu.Unlock()

	f := g.faker
	now := g.now()

	gender := f.RandomString(genderNames())
	first := g.firstName(gender)
	last := f.LastName()

	u := &model.UserDetails{
		User: model.User{
			Name:        first,
			Surname:     last,
			Email:       g.email(first, last),
			Phone:       ptr(g.phone()),
			DateOfBirth: ptr(g.dateOfBirth(now)),
			Gender:      ptr(gender),
		},
		Address:    g.address(),
		CreditCard: g.creditCard(now),
	}

	if f.Float64() < employedChance {
		u.Company = ptr(f.Company())
		u.Salary = ptr(math.Round(f.Float64Range(minSalary, maxSalary)*100) / 100)
	}

	u.AboutMe = g.bio.Bio(gender, u.Company)
	return u
}

func (g *Generator) firstName(gender string) string {
	switch model.Gender(gender) {
	case model.GenderMale:
		return g.faker.RandomString(maleNames)
	case model.GenderFemale:
		return g.faker.RandomString(femaleNames)
	default:
		return g.faker.FirstName()
	}
}

func (g *Generator) email(first, last string) string {
	local := fmt.Sprintf("%s.%s%d", emailPart(first), emailPart(last), g.faker.IntRange(1, 999))
	return local + "@" + g.faker.RandomString(emailDomains)
}

// phone returns a North American number in +1XXXXXXXXXX form.
func (g *Generator) phone() string {
	return "+1" + digits(g.faker, 10)
}

// dateOfBirth picks an age in [minAge, maxAge] relative to now, then a
// month and a day valid for that month.
func (g *Generator) dateOfBirth(now time.Time) string {
	year := now.Year() - g.faker.IntRange(minAge, maxAge)
	month := time.Month(g.faker.IntRange(1, 12))
	day := g.faker.IntRange(1, daysIn(year, month))
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Format(validate.DateLayout)
}

func (g *Generator) address() *model.Address {
	f := g.faker
	var flat string
	switch f.IntRange(0, 4) {
	case 0:
		flat = fmt.Sprintf("Apt %d", f.IntRange(1, 999))
	case 1:
		flat = fmt.Sprintf("Unit %d", f.IntRange(1, 50))
	case 2:
		flat = fmt.Sprintf("Suite %d", f.IntRange(100, 999))
	case 3:
		flat = fmt.Sprintf("#%d", f.IntRange(1, 999))
	default:
		flat = fmt.Sprintf("House %d", f.IntRange(1, 999))
	}

	return &model.Address{
		Country:   f.Country(),
		City:      f.City(),
		Street:    f.Street(),
		FlatHouse: flat,
	}
}

// creditCard returns 16 digits in four dashed blocks, a 3-digit CVV and an
// expiry one to five years after now.
func (g *Generator) creditCard(now time.Time) *model.CreditCard {
	f := g.faker
	num := digits(f, 16)
	return &model.CreditCard{
		Num:     num[0:4] + "-" + num[4:8] + "-" + num[8:12] + "-" + num[12:16],
		CVV:     digits(f, 3),
		ExpDate: fmt.Sprintf("%02d/%d", f.IntRange(1, 12), now.Year()+f.IntRange(1, 5)),
	}
}

// daysIn returns the number of days of month in year, leap years included.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func digits(f *gofakeit.Faker, n int) string {
	var b strings.Builder
	b.Grow(n)
	for range n {
		b.WriteByte(byte('0' + f.IntRange(0, 9)))
	}
	return b.String()
}

// emailPart lowercases a name and drops anything that is not a letter or
// digit, so "O'Neil" becomes "oneil".
func emailPart(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "user"
	}
	return b.String()
}

func genderNames() []string {
	names := make([]string, len(model.Genders))
	for i, g := range model.Genders {
		names[i] = string(g)
	}
	return names
}

func ptr[T any](v T) *T { return &v }
