package models

// Actor is the caller of a service operation, taken from the bearer token
// and the request
type Actor struct {
	ID        string
	Role      string
	TenantID  string
	IP        string
	UserAgent string
}

// SystemActor is used by background jobs and consumers
func SystemActor(tenantID string) Actor {
	return Actor{Role: "system", TenantID: tenantID}
}

func (a Actor) IsAdmin() bool {
	return IsAdminRole(a.Role)
}

type MarkPaidRequest struct {
	Metodo string `json:"metodo,omitempty" binding:"omitempty,oneof=pix debito credito"`
}
