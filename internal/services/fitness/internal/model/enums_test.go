package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("Beginner")
	require.NoError(t, err)
	assert.Equal(t, LevelBeginner, l)

	_, err = ParseLevel("expert")
	assert.ErrorIs(t, err, ErrInvalidEnum)
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("upper_body")
	require.NoError(t, err)
	assert.Equal(t, CategoryUpperBody, c)

	for _, bad := range []string{"", "upper body", "legs"} {
		_, err = ParseCategory(bad)
		assert.ErrorIs(t, err, ErrInvalidEnum, bad)
	}
}

func TestParseRole(t *testing.T) {
	tbl := map[string]Role{
		"USER":    RoleMember,
		"Member":  RoleMember,
		"1":       RoleMember,
		"trainer": RoleTrainer,
		"ADMIN":   RoleAdmin,
		"3":       RoleAdmin,
	}

	for in, want := range tbl {
		r, err := ParseRole(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, r, in)
	}

	_, err := ParseRole("root")
	assert.ErrorIs(t, err, ErrInvalidEnum)
}

func TestNewPage(t *testing.T) {
	p := NewPage[int](nil, 2, 20, 41)

	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 41, p.TotalCount)
	assert.NotNil(t, p.Items)
}
