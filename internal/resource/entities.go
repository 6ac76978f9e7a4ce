package resource

import (
	"carservice/internal/backend"
	"carservice/internal/model"
	"carservice/internal/pagination"
	"carservice/internal/validation"
)

func col(name, key string) pagination.Column[model.Record] {
	return pagination.Column[model.Record]{Name: name, Value: func(r model.Record) string { return r.String(key) }}
}

var roleChoices = []model.Option{
	{Value: model.RoleUser, Label: "User"},
	{Value: model.RoleAdmin, Label: "Admin"},
}

func carColumns(withOwner bool) []pagination.Column[model.Record] {
	cols := []pagination.Column[model.Record]{col("ID", "car_id")}
	if withOwner {
		cols = append(cols, pagination.Column[model.Record]{
			Name:  "Owner",
			Value: func(r model.Record) string { return firstOf(r, "owner", "username", "user_id") },
		})
	}
	return append(cols,
		col("Name", "name"),
		col("Model", "model"),
		col("Year", "year"),
		col("VIN", "vin"),
	)
}

func carFields(owner *OptionSource) []Field {
	var fields []Field
	if owner != nil {
		fields = append(fields, Field{
			Name: "userID", Label: "Owner", Kind: Select, Required: true, CreateOnly: true,
			Options: owner, Check: checkID("Owner"), Encode: encodeInt,
		})
	}
	return append(fields,
		Field{Name: "name", Label: "Name", Kind: Text, Required: true},
		Field{Name: "model", Label: "Model", Kind: Text, Required: true},
		Field{Name: "year", Label: "Year", Kind: Number, Required: true, Check: validation.Year, Encode: encodeYear},
		Field{Name: "vin", Label: "VIN", Kind: Text, Required: true, Check: validation.VIN},
	)
}

var serviceColumns = []pagination.Column[model.Record]{
	col("ID", "service_id"),
	{Name: "Car", Value: func(r model.Record) string { return orNA(r.String("car_name")) }},
	{Name: "Mileage", Value: func(r model.Record) string { return orZero(r.String("mileage")) }},
	{Name: "Type", Value: func(r model.Record) string { return Truncate(orNA(r.String("service_type")), 30) }},
	{Name: "Date", Value: func(r model.Record) string { return DisplayDate(r.String("service_date")) }},
	{Name: "Next date", Value: func(r model.Record) string { return DisplayDate(r.String("next_service_date")) }},
	{Name: "Cost", Value: func(r model.Record) string { return DisplayCost(r.String("cost")) }},
	{Name: "Notes", Value: notes, HTML: true},
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

func serviceFields(cars *OptionSource) []Field {
	return []Field{
		{Name: "carID", Label: "Car", Kind: Select, Required: true, CreateOnly: true, Options: cars, Check: checkID("Car"), Encode: encodeInt},
		{Name: "mileage", Label: "Mileage", Kind: Number, Required: true, Check: checkMileage, Encode: encodeMileage},
		{Name: "type", Label: "Service type", Kind: TextArea, RecordKey: "service_type", Required: true},
		{Name: "date", Label: "Service date", Kind: Date, RecordKey: "service_date", Required: true, Check: validation.Date},
		{Name: "nextDate", Label: "Next service date", Kind: Date, RecordKey: "next_service_date", Check: validation.Date},
		{Name: "cost", Label: "Cost", Kind: Number, Required: true, Check: checkCost, Encode: encodeCost},
		{Name: "notes", Label: "Notes (markdown)", Kind: TextArea},
	}
}

var (
	adminUserOptions = &OptionSource{Path: "/admin/users/list", ValueKey: "user_id", LabelKey: "username"}
	adminCarOptions  = &OptionSource{Path: "/admin/cars/list", ValueKey: "car_id", LabelKey: "name"}
	userCarOptions   = &OptionSource{Path: "/user/cars/ids-and-names", ValueKey: "car_id", LabelKey: "name"}
)

// AdminUsers manages every account.
var AdminUsers = &Schema{
	Scope: model.RoleAdmin, Name: "users", Singular: "user", Title: "Users", IDKey: "user_id",
	List:       backend.ListSpec{Path: "/admin/users", Key: "users", Action: "load users"},
	GetPath:    "/admin/user/%s",
	CreatePath: "/admin/add_user",
	UpdatePath: "/admin/update_user/%s",
	DeletePath: "/admin/delete_user/%s",
	Columns: []pagination.Column[model.Record]{
		col("ID", "user_id"),
		col("Username", "username"),
		col("Email", "email"),
		col("Role", "role"),
	},
	Fields: []Field{
		{Name: "username", Label: "Username", Kind: Text, Required: true},
		{Name: "email", Label: "Email", Kind: Email, Required: true, Check: validation.Email},
		{Name: "password", Label: "Password", Kind: Password, Required: true, BlankOnEdit: true, Check: validation.Password},
		{Name: "role", Label: "Role", Kind: Select, Required: true, Choices: roleChoices},
	},
}

// AdminCars manages every car.
var AdminCars = &Schema{
	Scope: model.RoleAdmin, Name: "cars", Singular: "car", Title: "Cars", IDKey: "car_id",
	List:       backend.ListSpec{Path: "/admin/cars", Key: "cars", Action: "load cars"},
	GetPath:    "/admin/car/%s",
	CreatePath: "/admin/add_car",
	UpdatePath: "/admin/update_car/%s",
	DeletePath: "/admin/delete_car/%s",
	Columns:    carColumns(true),
	Fields:     carFields(adminUserOptions),
}

// AdminServices manages every service record.
var AdminServices = &Schema{
	Scope: model.RoleAdmin, Name: "services", Singular: "service", Title: "Services", IDKey: "service_id",
	List:       backend.ListSpec{Path: "/admin/services", Key: "services", Action: "load services"},
	GetPath:    "/admin/service/%s",
	CreatePath: "/admin/add_service",
	UpdatePath: "/admin/update_service/%s",
	DeletePath: "/admin/delete_service/%s",
	Columns:    serviceColumns,
	Fields:     serviceFields(adminCarOptions),
}

// AdminLogs lists login history. Entries can only be deleted.
var AdminLogs = &Schema{
	Scope: model.RoleAdmin, Name: "logs", Singular: "log", Title: "Login logs", IDKey: "log_id",
	List:       backend.ListSpec{Path: "/admin/logs_login", Key: "logs", Action: "load logs"},
	DeletePath: "/admin/delete_log/%s",
	ReadOnly:   true,
	Columns: []pagination.Column[model.Record]{
		col("ID", "log_id"),
		col("User ID", "user_id"),
		{Name: "Login", Value: func(r model.Record) string { return orNA(r.String("login_time")) }},
		{Name: "Logout", Value: func(r model.Record) string { return orNA(r.String("logout_time")) }},
		col("IP address", "ip_address"),
	},
}

// UserCars manages the caller's own cars.
var UserCars = &Schema{
	Scope: model.RoleUser, Name: "cars", Singular: "car", Title: "My cars", IDKey: "car_id",
	List:       backend.ListSpec{Path: "/user/cars", Key: "cars", Action: "load cars"},
	GetPath:    "/user/car/%s",
	CreatePath: "/user/add_car",
	UpdatePath: "/user/update_car/%s",
	DeletePath: "/user/delete_car/%s",
	Columns:    carColumns(false),
	Fields:     carFields(nil),
}

// UserServices manages service records of the caller's cars, filterable by car.
var UserServices = &Schema{
	Scope: model.RoleUser, Name: "services", Singular: "service", Title: "My services", IDKey: "service_id",
	List:       backend.ListSpec{Path: "/user/services", Key: "services", Action: "load services", FilterParam: "car_id"},
	Filter:     userCarOptions,
	GetPath:    "/user/service/%s",
	CreatePath: "/user/add_service",
	UpdatePath: "/user/update_service/%s",
	DeletePath: "/user/delete_service/%s",
	Columns:    serviceColumns,
	Fields:     serviceFields(userCarOptions),
}

// Default is the registry the dashboard and the terminal client serve.
func Default() *Registry {
	return NewRegistry(AdminUsers, AdminCars, AdminServices, AdminLogs, UserCars, UserServices)
}
