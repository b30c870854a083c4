package registry

import (
	"github.com/dukex/weatherflow/pkg/nodes/datafilter"
	"github.com/dukex/weatherflow/pkg/nodes/timestampmerge"
	"github.com/dukex/weatherflow/pkg/nodes/tokyoweather"
	"github.com/dukex/weatherflow/pkg/nodes/weatherformatter"
)

// RegisterDefaultNodes registers all built-in node factories with the registry.
func (r *Registry) RegisterDefaultNodes() {
	r.RegisterNode(datafilter.NewDataFilterNodeFactory())
	r.RegisterNode(timestampmerge.NewTimestampMergeNodeFactory())
	r.RegisterNode(tokyoweather.NewTokyoWeatherNodeFactory())
	r.RegisterNode(weatherformatter.NewWeatherFormatterNodeFactory())
}
