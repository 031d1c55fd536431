// Package injector provides the identity provider shared by every catalog
// and publish call of one service: product identity, the session id, the
// logger, and the registry mapping event-type tags to model constructors.
//
// It also tracks every tag id registered by valid models so that duplicate
// ids across catalogs can be diagnosed. Tracking never blocks registration.
package injector
