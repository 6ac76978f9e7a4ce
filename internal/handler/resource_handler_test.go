package handler

import (
	"net/http"
	"net/url"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carservice/internal/model"
	"carservice/internal/resource"
)

func (a *testApp) routes(s *resource.Schema) {
	base := s.BasePath()
	a.e.GET(base, a.resourceHandler.List(s))
	a.e.GET(base+"/new", a.resourceHandler.New(s))
	a.e.POST(base+"/new", a.resourceHandler.Create(s))
	a.e.GET(base+"/:id/edit", a.resourceHandler.Edit(s))
	a.e.POST(base+"/:id/edit", a.resourceHandler.Update(s))
	a.e.GET(base+"/:id/delete", a.resourceHandler.ConfirmDelete(s))
	a.e.POST(base+"/:id/delete", a.resourceHandler.Delete(s))
}

func TestList_EmptyCollectionDisablesPager(t *testing.T) {
	app := newTestApp(t)
	app.backend.handle("GET /admin/cars", http.StatusOK, map[string]any{"items": []any{}, "total_pages": 0})
	app.routes(resource.AdminCars)

	rec := app.do(http.MethodGet, "/admin/cars", nil, app.session(t, model.RoleAdmin))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "No records found")
	assert.Contains(t, body, "<button disabled>Previous</button>")
	assert.Contains(t, body, "<button disabled>Next</button>")
	assert.NotContains(t, body, "Page 1 of")
	assert.Equal(t, 1, app.backend.count("GET /admin/cars"))
}

func TestList_NotFoundIsEmptyPage(t *testing.T) {
	app := newTestApp(t)
	app.backend.handle("GET /admin/cars", http.StatusNotFound, map[string]string{"message": "No cars found"})
	app.routes(resource.AdminCars)

	rec := app.do(http.MethodGet, "/admin/cars", nil, app.session(t, model.RoleAdmin))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No records found")
	assert.NotContains(t, rec.Body.String(), "No cars found")
}

func TestList_LastPage(t *testing.T) {
	app := newTestApp(t)
	app.backend.handleFunc("GET /admin/cars", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("per_page"))
		assert.Equal(t, "Bearer tok-admin", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{
			"cars": []map[string]any{
				{"car_id": 7, "name": "Civic", "model": "Honda", "year": 2019, "vin": "1HGCM82633A004352", "owner": "bob"},
			},
			"total_pages": 5,
		})
	})
	app.routes(resource.AdminCars)

	rec := app.do(http.MethodGet, "/admin/cars?page=5", nil, app.session(t, model.RoleAdmin))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Civic")
	assert.Contains(t, body, "Page 5 of 5")
	assert.Contains(t, body, `href="/admin/cars?page=4"`)
	assert.Contains(t, body, "<button disabled>Next</button>")
	assert.Contains(t, body, `href="/admin/cars/7/edit"`)
	assert.Contains(t, body, `href="/admin/cars/7/delete"`)
	assert.Contains(t, body, `href="/admin/cars/new"`)
}

func TestList_PagePastEndShowsLastPage(t *testing.T) {
	app := newTestApp(t)
	var mu sync.Mutex
	var pages []string
	app.backend.handleFunc("GET /admin/cars", func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		mu.Lock()
		pages = append(pages, page)
		mu.Unlock()
		cars := []map[string]any{}
		if page == "3" {
			cars = append(cars, map[string]any{"car_id": 9, "name": "Accord", "model": "Honda", "year": 2021, "vin": "1HGCM82633A004352"})
		}
		writeJSON(w, http.StatusOK, map[string]any{"cars": cars, "total_pages": 3})
	})
	app.routes(resource.AdminCars)

	rec := app.do(http.MethodGet, "/admin/cars?page=40", nil, app.session(t, model.RoleAdmin))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Accord")
	assert.Contains(t, body, "Page 3 of 3")
	assert.Contains(t, body, `href="/admin/cars?page=2"`)
	mu.Lock()
	assert.Equal(t, []string{"40", "3"}, pages)
	mu.Unlock()
}

func TestList_AuthExpiredRedirectsToLogin(t *testing.T) {
	app := newTestApp(t)
	app.backend.handle("GET /admin/users", http.StatusUnauthorized, map[string]string{"message": "Token has expired"})
	app.routes(resource.AdminUsers)

	rec := app.do(http.MethodGet, "/admin/users", nil, app.session(t, model.RoleAdmin))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))
	assert.Equal(t, 1, app.backend.count("GET /admin/users"))
	assert.Zero(t, app.store.count())
	cookie := responseCookie(rec, testCookie)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
}

func TestList_ServerErrorRendersErrorState(t *testing.T) {
	app := newTestApp(t)
	app.backend.handle("GET /admin/services", http.StatusInternalServerError, map[string]string{"message": "database unavailable"})
	app.routes(resource.AdminServices)

	rec := app.do(http.MethodGet, "/admin/services", nil, app.session(t, model.RoleAdmin))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "database unavailable")
	assert.Contains(t, body, "No records found")
	assert.Contains(t, body, "<button disabled>Next</button>")
	assert.Equal(t, 1, app.store.count())
}

func TestList_FilterBySelectedCar(t *testing.T) {
	app := newTestApp(t)
	app.backend.handle("GET /user/cars/ids-and-names", http.StatusOK, []map[string]any{
		{"car_id": 7, "name": "Civic"},
		{"car_id": 9, "name": "Corolla"},
	})
	app.backend.handleFunc("GET /user/services", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "9", r.URL.Query().Get("car_id"))
		assert.Empty(t, r.URL.Query().Get("query"))
		writeJSON(w, http.StatusOK, map[string]any{
			"services": []map[string]any{
				{"service_id": 2, "car_name": "Corolla", "mileage": 12000, "service_type": "Oil change",
					"service_date": "2024-03-01", "cost": "49.5", "notes": "synthetic **5W-30**"},
			},
			"total_pages": 1,
		})
	})
	app.routes(resource.UserServices)

	rec := app.do(http.MethodGet, "/user/services?filter=9", nil, app.session(t, model.RoleUser))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<option value="9" selected>9 - Corolla</option>`)
	assert.Contains(t, body, "Oil change")
	assert.Contains(t, body, "$49.50")
	assert.Contains(t, body, "<strong>5W-30</strong>")
}

func TestCreate_ValidationBlocksRequest(t *testing.T) {
	tests := []struct {
		name    string
		form    url.Values
		message string
	}{
		{
			name:    "vin with I",
			form:    url.Values{"name": {"Civic"}, "model": {"Honda"}, "year": {"2019"}, "vin": {"1HGCM82633A00435I"}},
			message: "VIN must be 17 characters",
		},
		{
			name:    "year too old",
			form:    url.Values{"name": {"Civic"}, "model": {"Honda"}, "year": {"1899"}, "vin": {"1HGCM82633A004352"}},
			message: "Year must be between 1900",
		},
		{
			name:    "missing name",
			form:    url.Values{"model": {"Honda"}, "year": {"2019"}, "vin": {"1HGCM82633A004352"}},
			message: "Name is required.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			app.backend.handle("POST /user/add_car", http.StatusCreated, map[string]string{"message": "Car added successfully"})
			app.routes(resource.UserCars)

			rec := app.do(http.MethodPost, "/user/cars/new", tt.form, app.session(t, model.RoleUser))

			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.message)
			assert.Contains(t, rec.Body.String(), `value="Honda"`)
			assert.Zero(t, app.backend.count("POST /user/add_car"))
		})
	}
}

func TestCreate_RejectedMessageShownVerbatim(t *testing.T) {
	app := newTestApp(t)
	app.backend.handle("POST /user/add_car", http.StatusBadRequest, map[string]string{"message": "A car with this VIN already exists"})
	app.routes(resource.UserCars)

	form := url.Values{"name": {"Civic"}, "model": {"Honda"}, "year": {"2019"}, "vin": {"1HGCM82633A004352"}}
	rec := app.do(http.MethodPost, "/user/cars/new", form, app.session(t, model.RoleUser))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "A car with this VIN already exists")
	assert.Contains(t, rec.Body.String(), `value="Civic"`)
}

func TestCreate_SuccessRedirectsWithNotice(t *testing.T) {
	app := newTestApp(t)
	app.backend.handleFunc("POST /user/add_car", func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		assert.Equal(t, "Civic", body["name"])
		assert.Equal(t, float64(2019), body["year"])
		assert.Equal(t, "1HGCM82633A004352", body["vin"])
		writeJSON(w, http.StatusCreated, map[string]string{"message": "Car added successfully"})
	})
	app.routes(resource.UserCars)

	form := url.Values{"name": {"Civic"}, "model": {"Honda"}, "year": {"2019"}, "vin": {"1HGCM82633A004352"}}
	rec := app.do(http.MethodPost, "/user/cars/new", form, app.session(t, model.RoleUser))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/user/cars?notice=Car+added+successfully", rec.Header().Get(echo.HeaderLocation))
}

func TestNew_LoadsOwnerOptions(t *testing.T) {
	app := newTestApp(t)
	app.backend.handle("GET /admin/users/list", http.StatusOK, []map[string]any{{"user_id": 3, "username": "bob"}})
	app.routes(resource.AdminCars)

	rec := app.do(http.MethodGet, "/admin/cars/new", nil, app.session(t, model.RoleAdmin))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<option value="3">3 - bob</option>`)
	assert.Contains(t, rec.Body.String(), `action="/admin/cars/new"`)
}

func TestEdit_PrefillsAndBlanksPassword(t *testing.T) {
	app := newTestApp(t)
	app.backend.handle("GET /admin/user/3", http.StatusOK, map[string]any{
		"user_id": 3, "username": "bob", "email": "bob@example.com", "role": "user", "password": "hash",
	})
	app.routes(resource.AdminUsers)

	rec := app.do(http.MethodGet, "/admin/users/3/edit", nil, app.session(t, model.RoleAdmin))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `value="bob"`)
	assert.Contains(t, body, `value="bob@example.com"`)
	assert.Contains(t, body, `<option value="user" selected>User</option>`)
	assert.NotContains(t, body, "hash")
	assert.Contains(t, body, `action="/admin/users/3/edit"`)
}

func TestUpdate_BlankPasswordIsOmitted(t *testing.T) {
	app := newTestApp(t)
	app.backend.handleFunc("PUT /admin/update_user/3", func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		assert.Equal(t, "bobby", body["username"])
		assert.NotContains(t, body, "password")
		writeJSON(w, http.StatusOK, map[string]string{"message": "User updated successfully"})
	})
	app.routes(resource.AdminUsers)

	form := url.Values{"username": {"bobby"}, "email": {"bob@example.com"}, "password": {""}, "role": {"user"}}
	rec := app.do(http.MethodPost, "/admin/users/3/edit", form, app.session(t, model.RoleAdmin))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/users?notice=User+updated+successfully", rec.Header().Get(echo.HeaderLocation))
	assert.Equal(t, 1, app.backend.count("PUT /admin/update_user/3"))
}

func TestDelete_ConfirmThenDelete(t *testing.T) {
	app := newTestApp(t)
	app.backend.handle("DELETE /admin/delete_log/11", http.StatusOK, map[string]string{"message": "Log deleted successfully"})
	app.routes(resource.AdminLogs)
	sid := app.session(t, model.RoleAdmin)

	rec := app.do(http.MethodGet, "/admin/logs/11/delete", nil, sid)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "delete this log (ID 11)")
	assert.Zero(t, app.backend.count("DELETE /admin/delete_log/11"))

	rec = app.do(http.MethodPost, "/admin/logs/11/delete", url.Values{}, sid)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/logs?notice=Log+deleted+successfully", rec.Header().Get(echo.HeaderLocation))
	assert.Equal(t, 1, app.backend.count("DELETE /admin/delete_log/11"))
}

func TestDelete_RejectedStaysOnConfirm(t *testing.T) {
	app := newTestApp(t)
	app.backend.handle("DELETE /admin/delete_user/3", http.StatusConflict, map[string]string{"message": "User still owns cars"})
	app.routes(resource.AdminUsers)

	rec := app.do(http.MethodPost, "/admin/users/3/delete", url.Values{}, app.session(t, model.RoleAdmin))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "User still owns cars")
}
