package runners

import (
	"github.com/dhima/filplus-aggregator/internal/aggregation"
	"github.com/dhima/filplus-aggregator/internal/models"
)

// IntegrationIPNI is the integration key for the IPNI advertisement mirror.
const IntegrationIPNI = "ipni"

// Catalogue returns the built-in Filecoin Plus runners in registration order.
// The order is not topological; the scheduler resolves it every cycle.
func Catalogue() []aggregation.Runner {
	return []aggregation.Runner{
		NewQueryRunner("AllocatorScoringRunner",
			[]TableQuery{{Table: models.TableAllocatorScoring, From: OriginDerived, Query: allocatorScoringQuery}},
			[]models.LogicalTable{
				models.TableClientAllocatorDistribution,
				models.TableClientProviderDistribution,
				models.TableClientReplicaDistribution,
				models.TableProviderRetrievabilityDaily,
			}, ""),
		NewQueryRunner("AllocatorsWeeklyRunner",
			[]TableQuery{
				{Table: models.TableAllocatorsWeekly, Query: allocatorsWeeklyQuery},
				{Table: models.TableAllocatorsWeeklyAcc, Query: allocatorsWeeklyAccQuery},
			}, nil, ""),
		NewQueryRunner("ClientAllocatorDistributionRunner",
			[]TableQuery{
				{Table: models.TableClientAllocatorDistribution, Query: clientAllocatorDistributionQuery},
				{Table: models.TableClientAllocatorDistributionWeekly, Query: clientAllocatorDistributionWeeklyQuery},
			}, nil, ""),
		NewQueryRunner("ClientProviderDistributionRunner",
			[]TableQuery{
				{Table: models.TableClientProviderDistribution, Query: clientProviderDistributionQuery},
				{Table: models.TableClientProviderDistributionWeekly, Query: clientProviderDistributionWeeklyQuery},
			}, nil, ""),
		NewQueryRunner("ClientReplicaDistributionRunner",
			[]TableQuery{{Table: models.TableClientReplicaDistribution, Query: clientReplicaDistributionQuery}},
			nil, ""),
		NewQueryRunner("ProviderIPNIReportingRunner",
			[]TableQuery{{Table: models.TableProviderIPNIReporting, Query: providerIPNIReportingQuery}},
			[]models.LogicalTable{models.TableProviderFirstClient}, IntegrationIPNI),
		NewQueryRunner("ProviderFirstClientRunner",
			[]TableQuery{{Table: models.TableProviderFirstClient, Query: providerFirstClientQuery}},
			nil, ""),
		NewQueryRunner("ProviderRetrievabilityRunner",
			[]TableQuery{{Table: models.TableProviderRetrievabilityDaily, Query: providerRetrievabilityQuery}},
			nil, ""),
		NewQueryRunner("ProvidersWeeklyAccRunner",
			[]TableQuery{{Table: models.TableProvidersWeeklyAcc, From: OriginDerived, Query: providersWeeklyAccQuery}},
			[]models.LogicalTable{models.TableProvidersWeekly}, ""),
		NewQueryRunner("ProvidersWeeklyRunner",
			[]TableQuery{{Table: models.TableProvidersWeekly, Query: providersWeeklyQuery}},
			nil, ""),
	}
}

const providersWeeklyQuery = `
SELECT date_trunc('week', to_timestamp(d.term_start * 30 + 1598306400)) AS week,
       d.provider_id AS provider,
       COUNT(DISTINCT d.client_id) AS num_of_clients,
       SUM(d.piece_size) AS total_deal_size
FROM unified_verified_deal d
GROUP BY week, provider`

const providersWeeklyAccQuery = `
SELECT w.week AS week,
       w.provider AS provider,
       SUM(p.total_deal_size) AS total_deal_size
FROM providers_weekly w
JOIN providers_weekly p ON p.provider = w.provider AND p.week <= w.week
GROUP BY w.week, w.provider`

const allocatorsWeeklyQuery = `
SELECT date_trunc('week', to_timestamp(d.term_start * 30 + 1598306400)) AS week,
       a.verifier_address_id AS allocator,
       COUNT(DISTINCT d.client_id) AS num_of_clients,
       SUM(d.piece_size) AS sum_of_allocations
FROM unified_verified_deal d
JOIN verified_client_allowance a ON a.address_id = d.client_id
GROUP BY week, allocator`

const allocatorsWeeklyAccQuery = `
SELECT w.week AS week,
       a.verifier_address_id AS allocator,
       SUM(d.piece_size) AS sum_of_allocations
FROM generate_series(date_trunc('week', now()) - interval '52 weeks', date_trunc('week', now()), interval '1 week') AS w(week)
JOIN unified_verified_deal d ON to_timestamp(d.term_start * 30 + 1598306400) <= w.week
JOIN verified_client_allowance a ON a.address_id = d.client_id
GROUP BY w.week, allocator`

const clientAllocatorDistributionQuery = `
SELECT a.verifier_address_id AS allocator,
       d.client_id AS client,
       COUNT(*) AS num_of_allocations,
       SUM(d.piece_size) AS sum_of_allocations
FROM unified_verified_deal d
JOIN verified_client_allowance a ON a.address_id = d.client_id
GROUP BY allocator, client`

const clientAllocatorDistributionWeeklyQuery = `
SELECT date_trunc('week', to_timestamp(d.term_start * 30 + 1598306400)) AS week,
       a.verifier_address_id AS allocator,
       d.client_id AS client,
       SUM(d.piece_size) AS sum_of_allocations
FROM unified_verified_deal d
JOIN verified_client_allowance a ON a.address_id = d.client_id
GROUP BY week, allocator, client`

const clientProviderDistributionQuery = `
SELECT d.client_id AS client,
       d.provider_id AS provider,
       SUM(d.piece_size) AS total_deal_size,
       SUM(d.piece_size) FILTER (WHERE d.piece_count = 1) AS unique_data_size
FROM unified_verified_deal d
GROUP BY client, provider`

const clientProviderDistributionWeeklyQuery = `
SELECT date_trunc('week', to_timestamp(d.term_start * 30 + 1598306400)) AS week,
       d.client_id AS client,
       d.provider_id AS provider,
       SUM(d.piece_size) AS total_deal_size
FROM unified_verified_deal d
GROUP BY week, client, provider`

const clientReplicaDistributionQuery = `
SELECT r.client_id AS client,
       r.num_of_replicas AS num_of_replicas,
       SUM(r.piece_size) AS total_deal_size
FROM (
    SELECT client_id, piece_cid, MAX(piece_size) AS piece_size, COUNT(DISTINCT provider_id) AS num_of_replicas
    FROM unified_verified_deal
    GROUP BY client_id, piece_cid
) r
GROUP BY client, num_of_replicas`

const providerFirstClientQuery = `
SELECT DISTINCT ON (d.provider_id)
       d.provider_id AS provider,
       d.client_id AS first_client
FROM unified_verified_deal d
ORDER BY d.provider_id, d.term_start`

const providerRetrievabilityQuery = `
SELECT date_trunc('day', r.tested_at) AS date,
       r.provider_id AS provider,
       COUNT(*) AS total,
       COUNT(*) FILTER (WHERE r.success) AS successful,
       AVG(CASE WHEN r.success THEN 1.0 ELSE 0.0 END) AS success_rate
FROM provider_retrievability_checks r
WHERE r.tested_at >= now() - interval '60 days'
GROUP BY date, provider`

const providerIPNIReportingQuery = `
SELECT i.provider_id AS provider,
       i.status AS status,
       i.publisher_peer_id AS peer_id,
       i.last_advertisement_at AS last_advertisement_at
FROM ipni_provider_advertisements i`

const allocatorScoringQuery = `
SELECT cad.allocator AS allocator,
       COUNT(DISTINCT cad.client) AS num_of_clients,
       AVG(crd.num_of_replicas) AS avg_replicas,
       AVG(prd.success_rate) AS avg_retrievability
FROM client_allocator_distribution cad
LEFT JOIN client_replica_distribution crd ON crd.client = cad.client
LEFT JOIN client_provider_distribution cpd ON cpd.client = cad.client
LEFT JOIN provider_retrievability_daily prd ON prd.provider = cpd.provider
GROUP BY cad.allocator`
