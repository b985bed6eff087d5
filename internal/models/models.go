package models

// Config holds store connection configuration
type Config struct {
	Provider   string            // mongodb, sqlite
	URI        string            // Connection URI or file path
	Database   string            // Database name
	Collection string            // Collection holding configurations
	Options    map[string]string // Provider-specific options

	// AllowNoopUpdates makes an update that matches a document but changes
	// nothing succeed instead of failing with ErrUpdateFailed
	AllowNoopUpdates bool
}

// ConnectionRequest is the body of POST /test_db_connection
type ConnectionRequest struct {
	DBType   string `json:"db_type" binding:"required"`   // e.g. mysql, postgresql
	HostPort string `json:"host_port" binding:"required"` // host:port
	Database string `json:"database" binding:"required"`
	Username string `json:"username"` // may be empty for trust or file based auth
	Password string `json:"password"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Detail string    `json:"detail"`
	Kind   ErrorKind `json:"kind,omitempty"`
}

// MessageResponse confirms a delete
type MessageResponse struct {
	Message string `json:"message"`
}

// StatusResponse confirms a connection test or a health check
type StatusResponse struct {
	Status string `json:"status"`
}
