// Package authcore implements the authentication core for the
// AetherGuard dashboard: manual email/password accounts, Google and
// GitHub OAuth sign-in, and cookie sessions, all converging on a single
// user record per email address.
//
// # Architecture
//
// UserIdentity: one record per email address. A record carries the
// bcrypt password hash (manual accounts only), the provider the account
// was first created through, and a map of external provider IDs linked
// to it over time.
//
// Resolver: the merge point for all sign-in paths. Given a profile
// candidate from any provider it either creates a new record or links
// the provider into the existing one, never duplicating an email and
// never overwriting an already-linked external ID.
//
// AuthFlow: HTTP handlers for the login page, manual login and
// registration, per-provider OAuth start and callback, and logout.
//
// # Basic Usage
//
// Set up a store, sessions, and the flow:
//
//	import (
//	    "github.com/sentinelai/authcore"
//	    "github.com/sentinelai/authcore/oauth2"
//	    "github.com/sentinelai/authcore/stores"
//	)
//
//	store := &stores.FSUserStore{StoragePath: "/path/to/storage"}
//	sessions := authcore.NewSessionManager("AetherGuard")
//
//	flow := &authcore.AuthFlow{
//	    Store:    store,
//	    Sessions: sessions,
//	    Providers: map[string]*oauth2.Provider{
//	        "google": oauth2.NewGoogle("", "", "http://localhost:8080/auth/google/callback"),
//	        "github": oauth2.NewGithub("", "", "http://localhost:8080/auth/github/callback"),
//	    },
//	}
//
//	router := mux.NewRouter()
//	flow.Routes(router)
//	http.ListenAndServe(":8080", sessions.LoadAndSave(router))
//
// # Store Implementations
//
// The stores package provides a file-based store suitable for
// development and small deployments. The stores/gorm and stores/gae
// packages back the same interface with a SQL database and Google
// Cloud Datastore respectively. All three enforce the one-record-per-
// email invariant atomically at the storage layer.
//
// # Security
//
// Passwords are hashed with bcrypt. The OAuth state nonce lives in the
// server-side session, is compared in constant time, and is consumed on
// first read so a callback URL cannot be replayed. Provider calls run
// under a bounded timeout, and a store outage is reported as a service
// error rather than an invalid-credentials failure.
//
// # Testing
//
// Handlers can be tested without a running HTTP server using
// httptest.NewRequest and httptest.ResponseRecorder. Tests use
// temporary storage directories for complete isolation.
package authcore
