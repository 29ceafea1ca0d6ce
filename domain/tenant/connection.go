package tenant

// ConnectionInfo is a proposed data-store connection to be classified
// by a connection validator before any tenant data is written.
type ConnectionInfo struct {
	Provider         string
	ConnectionString string
	TablePrefix      string
	Schema           string
}

// ConnectionStatus classifies a proposed data-store connection.
type ConnectionStatus int

const (
	// ConnectionOk means the connection is usable and no tenant data
	// exists behind it yet.
	ConnectionOk ConnectionStatus = iota

	// ConnectionNoProvider means no provider was specified.
	ConnectionNoProvider

	// ConnectionUnsupportedProvider means the provider is not known
	// to this host.
	ConnectionUnsupportedProvider

	// ConnectionInvalid means the connection could not be opened or
	// answered.
	ConnectionInvalid

	// ConnectionInvalidCertificate means the connection failed TLS
	// certificate verification.
	ConnectionInvalidCertificate

	// ConnectionDocumentTableFound means the target already contains
	// a document table for the configured prefix, i.e. another tenant
	// already occupies this schema.
	ConnectionDocumentTableFound
)

// String returns a short identifier for the status.
func (s ConnectionStatus) String() string {
	switch s {
	case ConnectionOk:
		return "ok"
	case ConnectionNoProvider:
		return "no_provider"
	case ConnectionUnsupportedProvider:
		return "unsupported_provider"
	case ConnectionInvalid:
		return "invalid_connection"
	case ConnectionInvalidCertificate:
		return "invalid_certificate"
	case ConnectionDocumentTableFound:
		return "document_table_found"
	default:
		return "unknown"
	}
}
