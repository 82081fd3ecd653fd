package authz

import (
	"testing"

	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/model"
)

func TestAllowed(t *testing.T) {
	a, err := New(logger.Discard())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tests := []struct {
		role, path, method string
		want               bool
	}{
		{model.AdminRoleStaff, "/admin", "GET", true},
		{model.AdminRoleStaff, "/admin/bookings/12", "GET", true},
		{model.AdminRoleStaff, "/admin/bookings/12/approve", "POST", true},
		{model.AdminRoleStaff, "/admin/bookings/12/reject", "POST", true},
		{model.AdminRoleStaff, "/admin/rooms", "GET", true},
		{model.AdminRoleStaff, "/admin/rooms", "POST", false},
		{model.AdminRoleStaff, "/admin/rooms/3", "DELETE", false},
		{model.AdminRoleStaff, "/admin/rooms/3/edit", "GET", false},
		{model.AdminRoleStaff, "/admin/bookings/12/dates", "PUT", false},

		{model.AdminRoleManager, "/admin/bookings/12/approve", "POST", true},
		{model.AdminRoleManager, "/admin/rooms", "POST", true},
		{model.AdminRoleManager, "/admin/rooms/create", "GET", true},
		{model.AdminRoleManager, "/admin/rooms/3/edit", "GET", true},
		{model.AdminRoleManager, "/admin/rooms/3", "PUT", true},
		{model.AdminRoleManager, "/admin/rooms/3", "DELETE", true},
		{model.AdminRoleManager, "/admin/rooms/3", "PATCH", false},
		{model.AdminRoleManager, "/admin/bookings/12/dates", "PUT", true},

		{"guest", "/admin", "GET", false},
		{"", "/admin", "GET", false},
	}

	for _, tt := range tests {
		t.Run(tt.role+" "+tt.method+" "+tt.path, func(t *testing.T) {
			if got := a.Allowed(tt.role, tt.path, tt.method); got != tt.want {
				t.Errorf("Allowed = %v, want %v", got, tt.want)
			}
		})
	}
}
