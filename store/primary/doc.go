// Package primary is the PostgreSQL adapter for the primary platform. It implements
// bridgeAuth.PrimaryUserStore, bridgeAuth.PrimaryAPIKeyStore and
// bridgeAuth.MultiUserModeFlag over database/sql with the pgx driver. Schema
// migrations are embedded and applied with goose by [Open].
package primary
