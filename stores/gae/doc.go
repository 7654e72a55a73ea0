//go:build !wasm
// +build !wasm

// Package gae provides a Google Cloud Datastore implementation of the
// authcore user store. It is designed for deployment on Google Cloud
// Platform and supports multi-tenancy through Datastore namespaces.
//
// User records are stored under the User kind, keyed by normalized
// email, so the keyspace itself guarantees a single record per email.
//
// # Usage
//
//	client, _ := datastore.NewClient(ctx, projectID)
//	userStore := gae.NewUserStore(client, "")  // default namespace
//
// Pass a namespace when creating the store to isolate data between
// tenants:
//
//	userStore := gae.NewUserStore(client, "tenant-123")
package gae
