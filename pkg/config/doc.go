// Package config loads the admin auth service configuration from the
// environment with cleanenv and validates it.
//
// Every setting has an ADMIN_ prefixed variable. Only ADMIN_JWT_SECRET has
// no default:
//
//	cfg, err := config.Load()
//	if err != nil {
//		return err
//	}
//	if err := cfg.Validate(); err != nil {
//		return err // lists every invalid variable
//	}
//
// Persistence is chosen with ADMIN_PERSISTENCE ("memory" or "postgres").
// Sessions live in Redis when ADMIN_REDIS_ADDR is set and in memory otherwise.
//
// Validation is built from small combinators:
//
//	config.Validate(
//		func() config.ValidationErrors {
//			return config.CollectErrors(
//				config.RequireNonEmpty("ADMIN_PG_HOST", host),
//				config.RequireValidPort("ADMIN_PG_PORT", port),
//			)
//		},
//	)
package config
