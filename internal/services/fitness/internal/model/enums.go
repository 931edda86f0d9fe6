package model

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidEnum = errors.New("invalid enum value")

type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

var levels = []Level{LevelBeginner, LevelIntermediate, LevelAdvanced}

func ParseLevel(s string) (Level, error) {
	for _, l := range levels {
		if strings.EqualFold(s, string(l)) {
			return l, nil
		}
	}

	return "", fmt.Errorf("%w: level %q, expected one of %v", ErrInvalidEnum, s, levels)
}

type Category string

const (
	CategoryUpperBody Category = "upper_body"
	CategoryLowerBody Category = "lower_body"
	CategoryCardio    Category = "cardio"
	CategoryCore      Category = "core"
	CategoryFullBody  Category = "full_body"
)

var categories = []Category{CategoryUpperBody, CategoryLowerBody, CategoryCardio, CategoryCore, CategoryFullBody}

func ParseCategory(s string) (Category, error) {
	for _, c := range categories {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}

	return "", fmt.Errorf("%w: category %q, expected one of %v", ErrInvalidEnum, s, categories)
}

type Role string

const (
	RoleMember  Role = "member"
	RoleTrainer Role = "trainer"
	RoleAdmin   Role = "admin"
)

// ParseRole accepts the canonical names, the legacy aliases "user"/"USER" and the
// numeric levels 1..3.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "member", "user", "1":
		return RoleMember, nil
	case "trainer", "2":
		return RoleTrainer, nil
	case "admin", "3":
		return RoleAdmin, nil
	}

	return "", fmt.Errorf("%w: role %q, expected one of %v", ErrInvalidEnum, s, []Role{RoleMember, RoleTrainer, RoleAdmin})
}

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func ParseGender(s string) (Gender, error) {
	switch g := Gender(strings.ToLower(s)); g {
	case GenderMale, GenderFemale, GenderOther:
		return g, nil
	}

	return "", fmt.Errorf("%w: gender %q", ErrInvalidEnum, s)
}
