package model

type Role string

const (
	RoleGuest    Role = "guest"
	RoleStudent  Role = "student"
	RoleStaff    Role = "staff"
	RoleSecurity Role = "security"
	RoleAdmin    Role = "admin"
)

// RoleLadder is the total order used for gate threshold comparisons.
var RoleLadder = []Role{RoleGuest, RoleStudent, RoleStaff, RoleSecurity, RoleAdmin}

var roleWeights = func() map[Role]int {
	weights := make(map[Role]int, len(RoleLadder))
	for idx, role := range RoleLadder {
		weights[role] = idx
	}
	return weights
}()

// Weight returns the ladder index of the role. Unknown roles rank below guest.
func (r Role) Weight() int {
	if weight, ok := roleWeights[r]; ok {
		return weight
	}
	return 0
}

func (r Role) Valid() bool {
	_, ok := roleWeights[r]
	return ok
}

// DefaultGateMinRole maps well-known gate slugs to their fallback threshold
// when no gate row is configured. Unknown slugs default to guest.
var DefaultGateMinRole = map[string]Role{
	"outer": RoleGuest,
	"inner": RoleStaff,
}
