package app

import (
	"github.com/capitalone/Stratum-Observability/internal/config"
	"github.com/capitalone/Stratum-Observability/internal/hcl"
	"github.com/capitalone/Stratum-Observability/internal/jsonccfg"
	"github.com/capitalone/Stratum-Observability/internal/yamlcfg"
)

// DefaultLoader routes every supported file extension to its loader.
func DefaultLoader() config.Dispatch {
	d := config.Dispatch{hcl.Extension: hcl.NewLoader()}
	yml := yamlcfg.NewLoader()
	for _, ext := range yamlcfg.Extensions {
		d[ext] = yml
	}
	jsn := jsonccfg.NewLoader()
	for _, ext := range jsonccfg.Extensions {
		d[ext] = jsn
	}
	return d
}
