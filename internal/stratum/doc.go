// Package stratum is the entry point applications use to observe themselves.
//
// A Service owns one identity provider, one registry and one publish
// pipeline. Applications register catalogs of tag definitions and plugins
// with it, and then publish tags by key:
//
//	svc := stratum.New(stratum.Options{
//		ProductName:    "checkout",
//		ProductVersion: "1.4.0",
//		Catalog:        &catalog.Options{Items: items},
//		Plugins:        []plugin.Plugin{console.New(os.Stdout)},
//	})
//	ok, err := svc.Publish(ctx, "checkout-started", nil)
//
// The first catalog passed through Options becomes the default catalog used
// by Publish. Other catalogs are published with PublishFromCatalog.
package stratum
