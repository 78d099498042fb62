package commands

import (
	"io"

	"github.com/NielsdaWheelz/cloudrole/internal/feature"
	"github.com/NielsdaWheelz/cloudrole/internal/render"
)

// FeaturesOpts holds options for the features command.
type FeaturesOpts struct {
	JSON bool
}

// Features lists the features that can be enabled.
func Features(opts FeaturesOpts, stdout io.Writer) error {
	var summaries []render.FeatureSummary
	for _, d := range feature.All() {
		summaries = append(summaries, render.FeatureSummary{
			ID:             string(d.ID),
			ConsumerKind:   string(d.ConsumerKind),
			ProviderKind:   string(d.ProviderKind),
			ProviderImport: d.ProviderImport,
		})
	}
	if opts.JSON {
		return render.WriteFeaturesJSON(stdout, summaries)
	}
	return render.WriteFeaturesHuman(stdout, summaries)
}
