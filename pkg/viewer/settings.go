package viewer

import (
	"maps"
	"net/url"
	"strconv"
	"time"

	"github.com/ethpandaops/reportoor/pkg/config"
	"github.com/ethpandaops/reportoor/pkg/render"
	"github.com/ethpandaops/reportoor/pkg/tree"
)

// NewConfig builds the viewer configuration from the render settings.
func NewConfig(rc *config.RenderConfig, loc *time.Location) Config {
	return Config{
		Render: render.Config{
			Location:          loc,
			RawDataURL:        rc.RawDataURL,
			AttachmentBaseURL: rc.AttachmentBaseURL,
		},
		ScrollOnSingleTest: rc.ScrollOnSingleTest,
	}
}

// InitialQuery returns the configured display options as view parameters
// with the parameters of q layered over them.
func InitialQuery(rc *config.RenderConfig, q url.Values) url.Values {
	out := make(url.Values, len(q)+3)

	if rc.OnlyFailures {
		out.Set(ParamOnlyFailures, strconv.FormatBool(true))
	}

	if rc.ShowDebugLogs {
		out.Set(ParamDebugLogs, strconv.FormatBool(true))
	}

	if rc.TestFilter != "" {
		out.Set(ParamFilter, rc.TestFilter)
	}

	maps.Copy(out, q)

	return out
}

// Open returns a viewer of idx mounted on fragment with the state of q
// applied over the configured defaults.
func Open(
	idx *tree.Index,
	rc *config.RenderConfig,
	loc *time.Location,
	fragment string,
	q url.Values,
) (*Viewer, error) {
	v := New(idx, NewConfig(rc, loc))
	v.Mount(fragment)

	if err := v.FromQuery(InitialQuery(rc, q)); err != nil {
		v.Close()

		return nil, err
	}

	return v, nil
}
