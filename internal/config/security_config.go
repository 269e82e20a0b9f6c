package config

type SecurityLevel int

const (
	SecurityPublic  SecurityLevel = iota // No authentication
	SecurityRefresh                      // Refresh token required
	SecurityAccess                       // Access token required
)

const engineService = "/bobiz.v1.ExchangeEngine/"

// EndpointSecurityConfig maps methods to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	"/grpc.health.v1.Health/Check": SecurityPublic,

	// Exchanges
	engineService + "CreateExchange":   SecurityAccess,
	engineService + "AcceptExchange":   SecurityAccess,
	engineService + "CompleteExchange": SecurityAccess,
	engineService + "CancelExchange":   SecurityAccess,
	engineService + "GetExchange":      SecurityAccess,
	engineService + "ListMyExchanges":  SecurityAccess,

	// Events and needs
	engineService + "CreateEvent":    SecurityAccess,
	engineService + "AddNeed":        SecurityAccess,
	engineService + "SetEventStatus": SecurityAccess,
	engineService + "GetEventStatus": SecurityAccess,
	engineService + "Position":       SecurityAccess,
	engineService + "Withdraw":       SecurityAccess,

	// Ledger
	engineService + "GetBalance": SecurityAccess,
	engineService + "GetHistory": SecurityAccess,

	// Notifications
	engineService + "GetNotifications":     SecurityAccess,
	engineService + "MarkNotificationRead": SecurityAccess,

	// Sessions
	engineService + "RefreshToken": SecurityRefresh,
}

// GetSecurityLevel returns the security level for a given method
func GetSecurityLevel(method string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[method]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAccess
}
