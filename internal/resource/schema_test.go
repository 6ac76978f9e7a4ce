package resource

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carservice/internal/backend"
	apperrors "carservice/internal/errors"
	"carservice/internal/model"
	"carservice/internal/pagination"
	"carservice/internal/validation"
)

func fixClock(t *testing.T) {
	t.Helper()
	prev := validation.Now
	validation.Now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { validation.Now = prev })
}

func TestSchema_CarPayload(t *testing.T) {
	fixClock(t)

	tests := []struct {
		name    string
		values  map[string]string
		create  bool
		wantErr string
	}{
		{
			name:   "valid create",
			values: map[string]string{"userID": "3", "name": "Civic", "model": "EX", "year": "2019", "vin": "1HGCM82633A004352"},
			create: true,
		},
		{
			name:    "missing owner on create",
			values:  map[string]string{"name": "Civic", "model": "EX", "year": "2019", "vin": "1HGCM82633A004352"},
			create:  true,
			wantErr: "Owner is required.",
		},
		{
			name:   "owner not needed on edit",
			values: map[string]string{"name": "Civic", "model": "EX", "year": "2019", "vin": "1HGCM82633A004352"},
		},
		{
			name:    "vin with I",
			values:  map[string]string{"name": "Civic", "model": "EX", "year": "2019", "vin": "1HGCM82633A00435I"},
			wantErr: "VIN must be 17 characters (letters except I, O, Q, and digits).",
		},
		{
			name:    "future year",
			values:  map[string]string{"name": "Civic", "model": "EX", "year": "2027", "vin": "1HGCM82633A004352"},
			wantErr: "Year must be between 1900 and 2026.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := AdminCars.Payload(tt.values, tt.create)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
				assert.Equal(t, tt.wantErr, apperrors.UserMessage(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, json.Number("2019"), payload["year"])
			assert.Equal(t, "1HGCM82633A004352", payload["vin"])
			if tt.create {
				assert.Equal(t, json.Number("3"), payload["userID"])
			} else {
				assert.NotContains(t, payload, "userID")
			}
		})
	}
}

func TestSchema_ServicePayload(t *testing.T) {
	values := map[string]string{
		"carID":   "11",
		"mileage": "42000",
		"type":    "Oil change",
		"date":    "2025-04-01",
		"cost":    "89.5",
		"notes":   "*synthetic*",
	}

	payload, err := AdminServices.Payload(values, true)
	require.NoError(t, err)
	assert.Equal(t, int64(42000), payload["mileage"])
	assert.Equal(t, json.Number("89.50"), payload["cost"])
	assert.Nil(t, payload["nextDate"])
	assert.Equal(t, "Oil change", payload["type"])

	body, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"cost":89.50`)

	values["cost"] = "-1"
	_, err = AdminServices.Payload(values, true)
	assert.Equal(t, "Cost must be a number between 0 and 10000000.", apperrors.UserMessage(err))

	values["cost"] = "10"
	values["mileage"] = "12.5"
	_, err = AdminServices.Payload(values, true)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestSchema_UserPasswordOptionalOnEdit(t *testing.T) {
	values := map[string]string{"username": "bob", "email": "bob@example.com", "role": "user"}

	_, err := AdminUsers.Payload(values, true)
	assert.Equal(t, "Password is required.", apperrors.UserMessage(err))

	payload, err := AdminUsers.Payload(values, false)
	require.NoError(t, err)
	assert.NotContains(t, payload, "password")

	values["password"] = "12345"
	_, err = AdminUsers.Payload(values, false)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	values["password"] = "123456"
	values["role"] = "root"
	_, err = AdminUsers.Payload(values, false)
	assert.Equal(t, "Role is invalid.", apperrors.UserMessage(err))
}

func TestSchema_Prefill(t *testing.T) {
	rec := model.Record{
		"service_id":        json.Number("5"),
		"car_id":            json.Number("11"),
		"mileage":           json.Number("42000"),
		"service_type":      "Oil change",
		"service_date":      "Tue, 01 Apr 2025 00:00:00 GMT",
		"next_service_date": nil,
		"cost":              json.Number("89.5"),
	}
	values := AdminServices.Prefill(rec)
	assert.Equal(t, "2025-04-01", values["date"])
	assert.Equal(t, "", values["nextDate"])
	assert.Equal(t, "Oil change", values["type"])
	assert.NotContains(t, values, "carID")

	userValues := AdminUsers.Prefill(model.Record{"username": "bob", "password": "hash"})
	assert.NotContains(t, userValues, "password")
}

func TestSchema_Actions(t *testing.T) {
	rec := model.Record{"car_id": json.Number("11"), "log_id": json.Number("2")}

	a := UserCars.Actions()
	assert.Equal(t, "/user/cars/new", a.Add())
	assert.Equal(t, "/user/cars/11/edit", a.Edit(rec))
	assert.Equal(t, "/user/cars/11/delete", a.Delete(rec))

	logs := AdminLogs.Actions()
	assert.Nil(t, logs.Add)
	assert.Nil(t, logs.Edit)
	assert.Equal(t, "/admin/logs/2/delete", logs.Delete(rec))

	assert.Equal(t, "/admin/delete_log/2", AdminLogs.DeleteURL("2"))
	assert.Equal(t, "/user/update_car/11", UserCars.UpdateURL("11"))
}

func TestRegistry(t *testing.T) {
	reg := Default()

	s, ok := reg.Lookup("admin", "logs")
	require.True(t, ok)
	assert.Equal(t, AdminLogs, s)

	_, ok = reg.Lookup("user", "users")
	assert.False(t, ok)

	assert.Len(t, reg.Scope("admin"), 4)
	assert.Len(t, reg.Scope("user"), 2)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "N/A", DisplayDate(""))
	assert.Equal(t, "Apr 1, 2025", DisplayDate("2025-04-01"))
	assert.Equal(t, "$89.50", DisplayCost("89.5"))
	assert.Equal(t, "$0.00", DisplayCost(""))
	assert.Equal(t, "abc...", Truncate("abcdef", 3))
	assert.Equal(t, "abc", Truncate("abc", 3))
}

func TestServiceNotesRenderMarkdownSafely(t *testing.T) {
	var notesCol = serviceColumns[len(serviceColumns)-1]
	require.True(t, notesCol.HTML)

	out := notesCol.Value(model.Record{"notes": "**brakes** <script>alert(1)</script>"})
	assert.Contains(t, out, "<strong>brakes</strong>")
	assert.NotContains(t, out, "<script>")
}

type listerFunc func(ctx context.Context, token string, spec backend.ListSpec, req pagination.PageRequest) (pagination.PageResult[model.Record], error)

func (f listerFunc) List(ctx context.Context, token string, spec backend.ListSpec, req pagination.PageRequest) (pagination.PageResult[model.Record], error) {
	return f(ctx, token, spec, req)
}

func TestSchema_Fetcher(t *testing.T) {
	var gotToken string
	var gotSpec backend.ListSpec
	api := listerFunc(func(_ context.Context, token string, spec backend.ListSpec, req pagination.PageRequest) (pagination.PageResult[model.Record], error) {
		gotToken, gotSpec = token, spec
		assert.Equal(t, "7", req.Filter)
		return pagination.PageResult[model.Record]{Items: []model.Record{{"service_id": "1"}}, TotalPages: 1}, nil
	})

	res, err := UserServices.Fetcher(api, "tok")(context.Background(), pagination.PageRequest{Page: 1, PerPage: 10, Filter: "7"})
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)
	assert.Equal(t, "tok", gotToken)
	assert.Equal(t, "car_id", gotSpec.FilterParam)
	assert.Equal(t, "/user/services", gotSpec.Path)
}
