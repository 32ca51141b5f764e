// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Agora API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg)

# Endpoints

Health:

	GET /health

Authentication (public):

	POST /api/auth/register - Register (first user becomes SuperAdmin)
	POST /api/auth/login    - Login, returns bearer token

User management (authenticated):

	GET    /api/users       - List users
	POST   /api/users       - Create user
	PUT    /api/users/{id}  - Update user
	DELETE /api/users/{id}  - Delete user
	POST   /api/users/batch - Batch import
	PUT    /api/profile     - Update own profile

Tenant management (SuperAdmin):

	GET    /api/superadmin/tenants
	POST   /api/superadmin/tenants
	PUT    /api/superadmin/tenants/{id}
	DELETE /api/superadmin/tenants/{id}

Assemblies, polls and proxies (authenticated):

	GET    /api/assemblies
	POST   /api/assemblies
	GET    /api/assemblies/{id}
	PUT    /api/assemblies/{id}
	DELETE /api/assemblies/{id}
	GET    /api/assemblies/{id}/polls
	POST   /api/assemblies/{id}/polls
	DELETE /api/assemblies/{id}/polls/{pollId}
	GET    /api/assemblies/{id}/proxies
	POST   /api/assemblies/{id}/proxies
	DELETE /api/assemblies/{id}/proxies/{proxyId}

Live session (authenticated):

	POST /api/assemblies/{id}/start
	POST /api/assemblies/{id}/end
	GET  /api/assemblies/{id}/state
	POST /api/assemblies/{id}/join
	POST /api/assemblies/{id}/polls/{pollId}/activate
	POST /api/assemblies/{id}/polls/{pollId}/close
	POST /api/assemblies/{id}/vote

Results and audit (authenticated):

	GET /api/assemblies/{id}/results - Weighted tallies per poll
	GET /api/assemblies/{id}/export  - CSV download of persisted votes
	GET /api/audit-logs              - Audit trail, newest first

# Handler Initialization

The router creates handler instances with dependency injection; all
handlers receive the database connection and configuration.
*/
package router
