package types

// TableName identifies one table. The well-known names below are the only
// tables a client accepts unless extra names are registered through
// StoreConfig.ExtraTables.
type TableName string

// Well-known table names.
const (
	TableContacts      TableName = "contacts"
	TableDeals         TableName = "deals"
	TableProducts      TableName = "products"
	TableReorderReport TableName = "reorder-report"
	TableTasks         TableName = "tasks"
	TableCallLogs      TableName = "call_logs"
	TableInquiries     TableName = "inquiries"
	TablePurchases     TableName = "purchases"
	TableTeamMessages  TableName = "team_messages"
	TableNotifications TableName = "notifications"
	TableUsers         TableName = "users"
	TableProfiles      TableName = "profiles"
)

// MockDataTables lists the tables that are dropped and reseeded when the
// stored schema version changes. Account tables are not in this list.
var MockDataTables = []TableName{
	TableContacts,
	TableDeals,
	TableProducts,
	TableReorderReport,
	TableTasks,
	TableCallLogs,
	TableInquiries,
	TablePurchases,
	TableTeamMessages,
	TableNotifications,
}

// WellKnownTables lists every table the seed loader knows about.
var WellKnownTables = append(append([]TableName{}, MockDataTables...), TableUsers, TableProfiles)

// IsWellKnown reports whether name is one of WellKnownTables.
func (n TableName) IsWellKnown() bool {
	for _, t := range WellKnownTables {
		if t == n {
			return true
		}
	}
	return false
}

func (n TableName) String() string {
	return string(n)
}
