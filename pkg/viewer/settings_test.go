package viewer_test

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/reportoor/pkg/config"
	"github.com/ethpandaops/reportoor/pkg/filter"
	"github.com/ethpandaops/reportoor/pkg/report/reporttest"
	"github.com/ethpandaops/reportoor/pkg/tree"
	"github.com/ethpandaops/reportoor/pkg/viewer"
)

func TestNewConfig(t *testing.T) {
	cfg := viewer.NewConfig(&config.RenderConfig{
		ScrollOnSingleTest: true,
		RawDataURL:         "report.js",
		AttachmentBaseURL:  "files/",
	}, time.UTC)

	assert.True(t, cfg.ScrollOnSingleTest)
	assert.Equal(t, "report.js", cfg.Render.RawDataURL)
	assert.Equal(t, "files/", cfg.Render.AttachmentBaseURL)
	assert.Equal(t, time.UTC, cfg.Render.Location)
}

func TestInitialQuery(t *testing.T) {
	rc := &config.RenderConfig{OnlyFailures: true, TestFilter: "login"}

	t.Run("defaults only", func(t *testing.T) {
		q := viewer.InitialQuery(rc, nil)

		assert.Equal(t, "true", q.Get(viewer.ParamOnlyFailures))
		assert.Equal(t, "login", q.Get(viewer.ParamFilter))
		assert.False(t, q.Has(viewer.ParamDebugLogs))
	})

	t.Run("request overrides defaults", func(t *testing.T) {
		q := viewer.InitialQuery(rc, url.Values{
			viewer.ParamOnlyFailures: {"false"},
			viewer.ParamFilter:       {""},
		})

		assert.Equal(t, "false", q.Get(viewer.ParamOnlyFailures))
		assert.True(t, q.Has(viewer.ParamFilter))
		assert.Empty(t, q.Get(viewer.ParamFilter))
	})
}

func TestOpen(t *testing.T) {
	idx := tree.New(reporttest.Sample(t))
	rc := &config.RenderConfig{ShowDebugLogs: true}

	t.Run("applies defaults and fragment", func(t *testing.T) {
		v, err := viewer.Open(idx, rc, time.UTC, "#auth.login_flow", nil)
		require.NoError(t, err)
		t.Cleanup(v.Close)

		assert.Equal(t, filter.Options{ShowDebugLogs: true}, v.Options())
		assert.Equal(t, "auth.login_flow", v.Focus().ID)
	})

	t.Run("invalid query", func(t *testing.T) {
		_, err := viewer.Open(idx, rc, time.UTC, "", url.Values{
			viewer.ParamOnlyFailures: {"maybe"},
		})
		require.ErrorIs(t, err, viewer.ErrInvalidQuery)
	})
}
