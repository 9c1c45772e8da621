// internal/models/query_types.go
package models

type QueryType string

const (
	QueryTypeProviderList   QueryType = "provider_list"
	QueryTypeProvidersByIDs QueryType = "providers_by_ids"
)
