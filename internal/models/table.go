package models

// LogicalTable names a derived dataset. At the scheduling level it is an
// opaque dependency token; it carries no schema.
type LogicalTable string

const (
	TableProvidersWeekly                   LogicalTable = "ProvidersWeekly"
	TableProvidersWeeklyAcc                LogicalTable = "ProvidersWeeklyAcc"
	TableAllocatorsWeekly                  LogicalTable = "AllocatorsWeekly"
	TableAllocatorsWeeklyAcc               LogicalTable = "AllocatorsWeeklyAcc"
	TableClientAllocatorDistribution       LogicalTable = "ClientAllocatorDistribution"
	TableClientAllocatorDistributionWeekly LogicalTable = "ClientAllocatorDistributionWeekly"
	TableClientProviderDistribution        LogicalTable = "ClientProviderDistribution"
	TableClientProviderDistributionWeekly  LogicalTable = "ClientProviderDistributionWeekly"
	TableClientReplicaDistribution         LogicalTable = "ClientReplicaDistribution"
	TableProviderFirstClient               LogicalTable = "ProviderFirstClient"
	TableProviderRetrievabilityDaily       LogicalTable = "ProviderRetrievabilityDaily"
	TableProviderIPNIReporting             LogicalTable = "ProviderIPNIReporting"
	TableAllocatorScoring                  LogicalTable = "AllocatorScoring"
)

// TableData is the extracted content of one destination table. Rows hold
// values in Columns order.
type TableData struct {
	Table   LogicalTable `json:"table"`
	Columns []string     `json:"columns"`
	Rows    [][]any      `json:"rows"`
}

// TableNames converts tables to plain strings, mainly for log fields.
func TableNames(tables []LogicalTable) []string {
	out := make([]string, len(tables))
	for i, t := range tables {
		out[i] = string(t)
	}
	return out
}
