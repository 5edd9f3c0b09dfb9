// Package store defines the storage interfaces the portal's handlers depend
// on, one per entity, each with its own sentinel errors. Implementations
// live in the memory and postgres subpackages; handlers receive them by
// injection rather than through package-level globals.
package store

// Stores bundles the per-entity stores for injection into the HTTP layer.
type Stores struct {
	Tenants        TenantStore
	Principals     PrincipalStore
	Sessions       SessionStore
	Tickets        TicketStore
	Agents         AgentStore
	Software       SoftwareStore
	Catalog        CatalogStore
	PaymentMethods PaymentMethodStore
}
