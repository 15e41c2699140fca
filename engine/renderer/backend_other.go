//go:build !windows

package renderer

import (
	"github.com/matteomeli/adamant/engine/core"
	"github.com/matteomeli/adamant/engine/platform"
)

func newBackend(config Config, platform *platform.Platform) (RendererBackend, error) {
	return nil, core.ErrUnsupportedOS
}
