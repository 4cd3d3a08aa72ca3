package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lvaldez/padron/internal/database/testutil"
	"github.com/lvaldez/padron/internal/models"
	apperrors "github.com/lvaldez/padron/pkg/errors"
)

var (
	adminActor    = Actor{ID: "admin-user", Roles: []string{models.RoleAdmin}}
	engineerActor = Actor{ID: "engineer-user", Roles: []string{models.RoleEngineer}}
	finanzasActor = Actor{ID: "finanzas-user", Roles: []string{models.RoleFinanzas}}
)

func newSocioService(t *testing.T) (*SocioService, *gorm.DB) {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewSocioService(db, nil)
	require.NoError(t, err)
	return svc, db
}

func validSocioInput() CreateSocioInput {
	return CreateSocioInput{
		DNI:             "12345678",
		Nombres:         "MARIA ELENA",
		ApellidoPaterno: "QUISPE",
		ApellidoMaterno: "HUAMAN",
		Localidad:       "VILLA EL SOL",
		Mz:              "C",
		Lote:            "14",
	}
}

func TestSocioCreateAndGet(t *testing.T) {
	svc, _ := newSocioService(t)
	ctx := context.Background()

	socio, err := svc.Create(ctx, adminActor, validSocioInput())
	require.NoError(t, err)
	require.NotEmpty(t, socio.ID)

	loaded, err := svc.Get(ctx, socio.ID)
	require.NoError(t, err)
	require.Equal(t, "12345678", loaded.DNI)
	require.Equal(t, "QUISPE", loaded.ApellidoPaterno)
	require.False(t, loaded.IsLoteMedido)
}

func TestSocioCreateRejectsInvalidDNI(t *testing.T) {
	svc, _ := newSocioService(t)

	input := validSocioInput()
	input.DNI = "123"
	_, err := svc.Create(context.Background(), adminActor, input)
	require.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestSocioCreateRejectsDuplicateDNI(t *testing.T) {
	svc, _ := newSocioService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, adminActor, validSocioInput())
	require.NoError(t, err)

	_, err = svc.Create(ctx, adminActor, validSocioInput())
	require.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestSocioCreateObservacionRequiresDetalle(t *testing.T) {
	svc, _ := newSocioService(t)

	input := validSocioInput()
	input.ObservacionPago = true
	_, err := svc.Create(context.Background(), adminActor, input)
	require.ErrorIs(t, err, apperrors.ErrValidation)

	input.ObservacionPagoDetalle = "Debe tres cuotas"
	socio, err := svc.Create(context.Background(), adminActor, input)
	require.NoError(t, err)
	require.True(t, socio.ObservacionPago)
}

func TestSocioListSearchAndPagination(t *testing.T) {
	svc, _ := newSocioService(t)
	ctx := context.Background()

	for i, dni := range []string{"11111111", "22222222", "33333333"} {
		input := validSocioInput()
		input.DNI = dni
		input.Nombres = []string{"ANA", "BENITO", "CARLA"}[i]
		input.ApellidoPaterno = []string{"ALVAREZ", "BRAVO", "CASTRO"}[i]
		_, err := svc.Create(ctx, adminActor, input)
		require.NoError(t, err)
	}

	all, total, err := svc.List(ctx, ListSociosOptions{})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, all, 3)
	require.Equal(t, "ALVAREZ", all[0].ApellidoPaterno)

	matches, total, err := svc.List(ctx, ListSociosOptions{Query: "BRAVO"})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "22222222", matches[0].DNI)

	paged, total, err := svc.List(ctx, ListSociosOptions{Page: 2, PerPage: 2})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, paged, 1)
}

func TestSocioListDerivesMeasuredState(t *testing.T) {
	svc, db := newSocioService(t)
	ctx := context.Background()

	socio, err := svc.Create(ctx, adminActor, validSocioInput())
	require.NoError(t, err)

	doc := models.SocioDocumento{
		SocioID:       socio.ID,
		TipoDocumento: models.DocumentoPlanos,
		LinkDocumento: "memory://planos/plano.pdf",
	}
	require.NoError(t, db.Create(&doc).Error)

	listed, _, err := svc.List(ctx, ListSociosOptions{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.NotEmpty(t, listed[0].Documentos)
	require.False(t, listed[0].IsLoteMedido)
	require.True(t, EffectiveMeasuredState(&listed[0]))
}

func TestSocioUpdateClearsObservacionDetalle(t *testing.T) {
	svc, _ := newSocioService(t)
	ctx := context.Background()

	input := validSocioInput()
	input.ObservacionAdmin = true
	input.ObservacionAdminDetalle = "Documentos incompletos"
	socio, err := svc.Create(ctx, adminActor, input)
	require.NoError(t, err)

	off := false
	updated, err := svc.Update(ctx, adminActor, socio.ID, UpdateSocioInput{ObservacionAdmin: &off})
	require.NoError(t, err)
	require.False(t, updated.ObservacionAdmin)
	require.Empty(t, updated.ObservacionAdminDetalle)
}

func TestSocioDeleteRequiresAdmin(t *testing.T) {
	svc, db := newSocioService(t)
	ctx := context.Background()

	socio, err := svc.Create(ctx, adminActor, validSocioInput())
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(ctx, engineerActor, socio.ID), apperrors.ErrPermissionDenied)

	require.NoError(t, svc.Delete(ctx, adminActor, socio.ID))
	require.ErrorIs(t, svc.Delete(ctx, adminActor, socio.ID), apperrors.ErrNotFound)

	var count int64
	require.NoError(t, db.Model(&models.SocioTitular{}).Count(&count).Error)
	require.Zero(t, count)
}
