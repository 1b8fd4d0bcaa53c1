// Package model defines the data structures used throughout the application.
package model

import "time"

// Gender is one of the three values accepted for User.Gender.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Genders lists every accepted gender, in display order.
var Genders = []Gender{GenderMale, GenderFemale, GenderOther}

// User is a stored user profile without its child records.
//
// Optional columns are pointers so that "absent" survives a round trip
// through JSON and SQL alike. DateOfBirth is kept in canonical YYYY-MM-DD
// form, which sorts lexicographically in date order.
type User struct {
	ID          string    `json:"id"            db:"id"`
	Name        string    `json:"name"          db:"name"`
	Surname     string    `json:"surname"       db:"surname"`
	Email       string    `json:"email"         db:"email"`
	Phone       *string   `json:"phone"         db:"phone"`
	DateOfBirth *string   `json:"date_of_birth" db:"date_of_birth"`
	Gender      *string   `json:"gender"        db:"gender"`
	Company     *string   `json:"company"       db:"company"`
	Salary      *float64  `json:"salary"        db:"salary"`
	AboutMe     string    `json:"about_me"      db:"about_me"`
	CreatedAt   time.Time `json:"created_at"    db:"created_at"`
}

// Address is the single optional postal address of a user.
type Address struct {
	Country   string `json:"country"    db:"country"    validate:"required,max=100"`
	City      string `json:"city"       db:"city"       validate:"required,max=100"`
	Street    string `json:"street"     db:"street"     validate:"required,max=200"`
	FlatHouse string `json:"flat_house" db:"flat_house" validate:"required,max=50"`
}

// CreditCard is the single optional payment card of a user.
// Num is stored in dashed 4-digit blocks, CVV as a string to keep leading
// zeros, ExpDate as MM/YYYY.
type CreditCard struct {
	Num     string `json:"num"      db:"num"      validate:"required"`
	CVV     string `json:"cvv"      db:"cvv"      validate:"required"`
	ExpDate string `json:"exp_date" db:"exp_date" validate:"required"`
}

// UserDetails is the aggregate returned by every read: a user with its
// optional address and card.
type UserDetails struct {
	User
	Address    *Address    `json:"address"`
	CreditCard *CreditCard `json:"credit_card"`
}

// UserPatch is a partial update. Nil means "leave unchanged"; a non-nil
// Address or CreditCard replaces the stored child wholesale.
type UserPatch struct {
	Name        *string
	Surname     *string
	Email       *string
	Phone       *string
	DateOfBirth *string
	Gender      *string
	Company     *string
	Salary      *float64
	AboutMe     *string
	Address     *Address
	CreditCard  *CreditCard
}

// IsEmpty reports whether the patch changes nothing.
func (p UserPatch) IsEmpty() bool {
	return p.Name == nil && p.Surname == nil && p.Email == nil && p.Phone == nil &&
		p.DateOfBirth == nil && p.Gender == nil && p.Company == nil && p.Salary == nil &&
		p.AboutMe == nil && p.Address == nil && p.CreditCard == nil
}

// Apply copies every present scalar field of p onto u. ID and CreatedAt
// are never touched; children are handled by the caller.
func (p UserPatch) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Surname != nil {
		u.Surname = *p.Surname
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Phone != nil {
		u.Phone = p.Phone
	}
	if p.DateOfBirth != nil {
		u.DateOfBirth = p.DateOfBirth
	}
	if p.Gender != nil {
		u.Gender = p.Gender
	}
	if p.Company != nil {
		u.Company = p.Company
	}
	if p.Salary != nil {
		u.Salary = p.Salary
	}
	if p.AboutMe != nil {
		u.AboutMe = *p.AboutMe
	}
}

// UserFilter narrows a search. Empty strings are ignored.
// Name, Surname and Email match as case-insensitive substrings; Gender and
// DateOfBirth match exactly; DateOfBirthFrom/To bound an inclusive range.
type UserFilter struct {
	Name            string
	Surname         string
	Email           string
	Gender          string
	DateOfBirth     string
	DateOfBirthFrom string
	DateOfBirthTo   string
}

// Stats summarises the population for the /stats endpoint.
type Stats struct {
	Total              int            `json:"totals"`
	GenderDistribution map[string]int `json:"gender_distribution"`
	Timestamp          time.Time      `json:"timestamp"`
}
