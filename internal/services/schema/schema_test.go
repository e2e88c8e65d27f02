package schema

import (
	"strings"
	"testing"

	"github.com/mosefak/medchat/internal/models"
)

func TestForRoleRestricted(t *testing.T) {
	for _, role := range []models.Role{models.RolePatient, models.RoleDoctor} {
		got := ForRole(role)
		if !strings.Contains(got, "## Private") {
			t.Errorf("role %s: restricted schema should annotate private columns", role)
		}
		if strings.Contains(got, "[Payments]") {
			t.Errorf("role %s: restricted schema must not expose Payments", role)
		}
		if strings.Contains(got, "[Security].[Roles]") {
			t.Errorf("role %s: restricted schema must not expose Security.Roles", role)
		}
	}
}

func TestForRoleAdmin(t *testing.T) {
	got := ForRole(models.RoleAdmin)
	if strings.Contains(got, "## Private") {
		t.Error("admin schema should not carry private annotations")
	}
	for _, table := range []string{"[Payments]", "[Security].[Roles]", "[Security].[UserRoles]", "[LicenseNumber]"} {
		if !strings.Contains(got, table) {
			t.Errorf("admin schema missing %s", table)
		}
	}
}
