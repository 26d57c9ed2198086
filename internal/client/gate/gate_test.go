package gate

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/parishkeeper/internal/client/backend"
	"github.com/dmitrijs2005/parishkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsComplete(t *testing.T) {
	tests := []struct {
		name        string
		required    []string
		attachments map[string]string
		want        bool
	}{
		{"all present", []string{"A", "B"}, map[string]string{"A": "u1", "B": "u2"}, true},
		{"one missing", []string{"A", "B"}, map[string]string{"A": "u1"}, false},
		{"empty url", []string{"A"}, map[string]string{"A": ""}, false},
		{"blank url", []string{"A"}, map[string]string{"A": "  "}, false},
		{"nothing required", nil, nil, true},
		{"extra optional", []string{"A"}, map[string]string{"A": "u1", "C": "u3"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsComplete(tt.required, tt.attachments))
		})
	}
}

func TestMissing(t *testing.T) {
	assert.Equal(t, []string{"B", "D"}, Missing([]string{"A", "B", "C", "D"}, map[string]string{"A": "x", "C": "y"}))
}

func newMock(t *testing.T) (*Gate, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(backend.NewPostgresTables(db), nil), mock
}

const (
	selectSQL = `SELECT "appointment_id", "status" FROM "appointments" WHERE "appointment_id" = $1 LIMIT 1`
	updateSQL = `UPDATE "appointments" SET "status" = $1 WHERE "appointment_id" = $2 AND "status" = $3 RETURNING *`
)

var (
	required = []string{"Baptismal Certificate", "Birth Certificate"}
	complete = map[string]string{"Baptismal Certificate": "u1", "Birth Certificate": "u2"}
)

func TestSubmit_Success(t *testing.T) {
	g, mock := newMock(t)

	mock.ExpectQuery(selectSQL).WithArgs("9").
		WillReturnRows(sqlmock.NewRows([]string{"appointment_id", "status"}).AddRow("9", "pending for requirements"))
	mock.ExpectQuery(updateSQL).WithArgs("pending for approval", "9", "pending for requirements").
		WillReturnRows(sqlmock.NewRows([]string{"appointment_id", "status"}).AddRow("9", "pending for approval"))

	require.NoError(t, g.Submit(context.Background(), "9", required, complete))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmit_IncompleteDoesNoIO(t *testing.T) {
	g, mock := newMock(t)

	err := g.Submit(context.Background(), "9", required, map[string]string{"Baptismal Certificate": "u1"})
	require.ErrorIs(t, err, ErrIncomplete)
	require.ErrorIs(t, err, common.ErrValidation)
	assert.Contains(t, err.Error(), "Birth Certificate")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmit_AlreadySubmitted(t *testing.T) {
	g, mock := newMock(t)

	mock.ExpectQuery(selectSQL).WithArgs("9").
		WillReturnRows(sqlmock.NewRows([]string{"appointment_id", "status"}).AddRow("9", "pending for approval"))

	err := g.Submit(context.Background(), "9", required, complete)
	require.ErrorIs(t, err, ErrAlreadySubmitted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmit_LostRace(t *testing.T) {
	g, mock := newMock(t)

	mock.ExpectQuery(selectSQL).WithArgs("9").
		WillReturnRows(sqlmock.NewRows([]string{"appointment_id", "status"}).AddRow("9", "pending for requirements"))
	mock.ExpectQuery(updateSQL).WithArgs("pending for approval", "9", "pending for requirements").
		WillReturnRows(sqlmock.NewRows([]string{"appointment_id", "status"}))

	err := g.Submit(context.Background(), "9", required, complete)
	require.ErrorIs(t, err, ErrAlreadySubmitted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmit_NotFound(t *testing.T) {
	g, mock := newMock(t)

	mock.ExpectQuery(selectSQL).WithArgs("404").
		WillReturnRows(sqlmock.NewRows([]string{"appointment_id", "status"}))

	err := g.Submit(context.Background(), "404", required, complete)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestSubmit_BackendError(t *testing.T) {
	g, mock := newMock(t)
	boom := errors.New("conn reset")

	mock.ExpectQuery(selectSQL).WithArgs("9").WillReturnError(boom)

	err := g.Submit(context.Background(), "9", required, complete)
	require.ErrorIs(t, err, boom)
}
