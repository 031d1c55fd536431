// Package registry holds the extensions and before-publish hooks of one
// service.
//
// The Registry is an explicitly owned object: it is created with the service
// that uses it (or shared deliberately between services) rather than living
// in process-global state. Both collections are ordered and every access is
// serialized by a mutex, so registration may race with publishing.
//
// Extensions are appended with AddPlugin and removed, first match by name,
// with RemovePlugin. Hooks are append-only and are folded over publisher
// content by RunHookChain in registration order.
package registry
