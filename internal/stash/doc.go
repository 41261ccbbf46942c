// Package stash implements the GraphQL client for the Stash media library.
//
// The client covers exactly what batch runs need: resolving one scene by id
// and enumerating every scene page by page. Authentication supports both the
// ApiKey header and the session cookie handed to plugins.
package stash
