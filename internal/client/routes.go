package client

import "rifas/internal/models"

// Route is a screen the navigation may offer
type Route struct {
	Path  string
	Title string
}

var (
	publicRoutes = []Route{
		{Path: "/", Title: "Início"},
		{Path: "/rifas", Title: "Rifas"},
		{Path: "/login", Title: "Entrar"},
		{Path: "/cadastro", Title: "Criar conta"},
	}
	playerRoutes = []Route{
		{Path: "/", Title: "Início"},
		{Path: "/rifas", Title: "Rifas"},
		{Path: "/minhas-compras", Title: "Minhas compras"},
		{Path: "/perfil", Title: "Perfil"},
	}
	adminRoutes = []Route{
		{Path: "/dashboard", Title: "Painel"},
		{Path: "/admin-sorteios", Title: "Sorteios"},
		{Path: "/admin-apuracao", Title: "Apuração"},
		{Path: "/admin-settings", Title: "Configurações"},
	}
)

// AllowedRoutes lists the screens a role may reach. An empty role is an
// anonymous visitor.
func AllowedRoutes(role string) []Route {
	var routes []Route
	switch {
	case role == "":
		routes = append(routes, publicRoutes...)
	case models.IsAdminRole(role):
		routes = append(routes, playerRoutes...)
		routes = append(routes, adminRoutes...)
	default:
		routes = append(routes, playerRoutes...)
	}
	return routes
}

// CanVisit reports whether path is among the role's routes
func CanVisit(role, path string) bool {
	for _, r := range AllowedRoutes(role) {
		if r.Path == path {
			return true
		}
	}
	return false
}
