package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "rifas/internal/errors"
	"rifas/internal/models"
)

func TestParseHorario(t *testing.T) {
	for in, want := range map[string]string{"19:00": "19:00", " 09:30:00 ": "09:30", "7:05": "07:05"} {
		got, err := parseHorario(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	for _, in := range []string{"25:61", "x", ""} {
		_, err := parseHorario(in)
		assert.ErrorIs(t, err, apperrors.ErrValidation, in)
	}
}

func TestApplySorteioRejectsBlankNome(t *testing.T) {
	s := &models.Sorteio{Nome: "Federal", Horario: "19:00"}
	blank := "  "
	assert.ErrorIs(t, applySorteio(s, &blank, nil), apperrors.ErrValidation)

	nome, horario := " PT Rio ", "14:00:00"
	require.NoError(t, applySorteio(s, &nome, &horario))
	assert.Equal(t, "PT Rio", s.Nome)
	assert.Equal(t, "14:00", s.Horario)
}

func TestApplyUserUpdate(t *testing.T) {
	admin := models.Actor{ID: "a1", Role: models.RoleAdmin, TenantID: "t1"}
	global := models.Actor{ID: "g1", Role: models.RoleGlobalAdmin, TenantID: "t1"}
	off := models.FlexibleBool(false)
	role := func(r string) *string { return &r }

	t.Run("cannot deactivate self", func(t *testing.T) {
		self := &models.User{ID: "a1", Role: models.RoleAdmin, IsActive: true}
		err := applyUserUpdate(admin, self, &models.UpdateUserRequest{IsActive: &off})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		assert.True(t, self.IsActive)
	})

	t.Run("deactivates another user", func(t *testing.T) {
		u := &models.User{ID: "u1", Role: models.RolePlayer, IsActive: true}
		require.NoError(t, applyUserUpdate(admin, u, &models.UpdateUserRequest{IsActive: &off}))
		assert.False(t, u.IsActive)
	})

	t.Run("only a global admin grants global_admin", func(t *testing.T) {
		u := &models.User{ID: "u1", Role: models.RolePlayer}
		err := applyUserUpdate(admin, u, &models.UpdateUserRequest{Role: role(models.RoleGlobalAdmin)})
		assert.ErrorIs(t, err, apperrors.ErrForbidden)

		require.NoError(t, applyUserUpdate(global, u, &models.UpdateUserRequest{Role: role(models.RoleGlobalAdmin)}))
		assert.Equal(t, models.RoleGlobalAdmin, u.Role)
	})

	t.Run("admin cannot change a global admin", func(t *testing.T) {
		u := &models.User{ID: "g2", Role: models.RoleGlobalAdmin}
		err := applyUserUpdate(admin, u, &models.UpdateUserRequest{Role: role(models.RolePlayer)})
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("cannot demote self", func(t *testing.T) {
		self := &models.User{ID: "a1", Role: models.RoleAdmin}
		err := applyUserUpdate(admin, self, &models.UpdateUserRequest{Role: role(models.RolePlayer)})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		assert.Equal(t, models.RoleAdmin, self.Role)
	})

	t.Run("blank phone clears it", func(t *testing.T) {
		phone := "+5511999990000"
		u := &models.User{ID: "u1", Phone: &phone}
		blank := " "
		require.NoError(t, applyUserUpdate(admin, u, &models.UpdateUserRequest{Phone: &blank}))
		assert.Nil(t, u.Phone)
	})
}

func TestUserAuditViewOmitsPassword(t *testing.T) {
	view := userAuditView(&models.User{ID: "u1", PasswordHash: "$2a$10$abc", Role: models.RolePlayer})
	assert.NotContains(t, view, "password_hash")
	assert.Equal(t, models.RolePlayer, view["role"])
}

func TestConversionRate(t *testing.T) {
	assert.Equal(t, 0.0, conversionRate(3, 0))
	assert.Equal(t, 33.33, conversionRate(1, 3))
	assert.Equal(t, 100.0, conversionRate(4, 4))
}
