package user

type Role string

const (
	RoleAdministrator Role = "Administrador" // Full access, may override conflicts
	RoleSupervisor    Role = "Supervisor"    // Manages escalas and reviews check-ins
	RoleSocio         Role = "Socio"         // Staff member working shifts
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdministrator, RoleSupervisor, RoleSocio:
		return true
	}
	return false
}

// Person is a staff member that may be assigned to shifts.
type Person struct {
	ID   string
	Name string
	Role Role
}

// IsAdministrator checks if the person is an administrator
func (p *Person) IsAdministrator() bool {
	return p.Role == RoleAdministrator
}

// IsSupervisor checks if the person is a supervisor or administrator
func (p *Person) IsSupervisor() bool {
	return p.Role == RoleSupervisor || p.Role == RoleAdministrator
}
