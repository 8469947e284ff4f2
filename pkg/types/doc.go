// Package types defines the nexus client contracts: the Client façade, the
// Query, Channel and Auth interfaces, records and table names, entity
// structs for the well-known tables, configuration, and the error values
// shared by the local and hosted backends.
package types
