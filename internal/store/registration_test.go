package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ministry_hub/internal/models"
)

func TestRegister_NotOpen(t *testing.T) {
	gdb, mock := newMockDB(t)
	err := Register(context.Background(), gdb, &models.Event{ID: "E1", Status: models.EventPlanned}, &models.EventRegistration{Name: "Ana"})
	assert.ErrorIs(t, err, ErrEventNotOpen)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_Full(t *testing.T) {
	gdb, mock := newMockDB(t)
	capacity := 2
	uid := "U1"
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `event_registrations`").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `event_registrations`").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	ev := &models.Event{ID: "E1", Status: models.EventOpen, Capacity: &capacity}
	err := Register(context.Background(), gdb, ev, &models.EventRegistration{UserID: &uid, Name: "Ana"})
	assert.ErrorIs(t, err, ErrEventFull)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_Duplicate(t *testing.T) {
	gdb, mock := newMockDB(t)
	uid := "U1"
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `event_registrations`").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	ev := &models.Event{ID: "E1", Status: models.EventOpen}
	err := Register(context.Background(), gdb, ev, &models.EventRegistration{UserID: &uid, Name: "Ana"})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_Confirms(t *testing.T) {
	gdb, mock := newMockDB(t)
	capacity := 10
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `event_registrations`").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectExec("INSERT INTO `event_registrations`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	reg := &models.EventRegistration{Name: "Visitante"}
	ev := &models.Event{ID: "E1", Status: models.EventOpen, Capacity: &capacity}
	require.NoError(t, Register(context.Background(), gdb, ev, reg))
	assert.Equal(t, "E1", reg.EventID)
	assert.Equal(t, models.RegistrationConfirmed, reg.Status)
	assert.NotEmpty(t, reg.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
