package model

import (
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func TestUserPatchApply_OnlyPresentFields(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	u := User{
		ID:        "u1",
		Name:      "Ada",
		Surname:   "Lovelace",
		Email:     "ada@example.com",
		Phone:     strPtr("+15551234567"),
		AboutMe:   "math",
		CreatedAt: created,
	}

	salary := 50000.0
	UserPatch{Salary: &salary}.Apply(&u)

	if u.Salary == nil || *u.Salary != 50000 {
		t.Fatalf("Salary = %v, want 50000", u.Salary)
	}
	if u.Name != "Ada" || u.Email != "ada@example.com" || u.AboutMe != "math" {
		t.Errorf("untouched fields changed: %+v", u)
	}
	if u.Phone == nil || *u.Phone != "+15551234567" {
		t.Errorf("Phone changed: %v", u.Phone)
	}
	if u.ID != "u1" || !u.CreatedAt.Equal(created) {
		t.Errorf("ID/CreatedAt changed: %q %v", u.ID, u.CreatedAt)
	}
}

func TestUserPatchIsEmpty(t *testing.T) {
	if !(UserPatch{}).IsEmpty() {
		t.Error("zero patch should be empty")
	}
	if (UserPatch{Address: &Address{}}).IsEmpty() {
		t.Error("patch with address should not be empty")
	}
}
