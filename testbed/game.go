package testbed

import (
	"math"
	"os"

	"github.com/matteomeli/adamant/engine"
	"github.com/matteomeli/adamant/engine/core"
	"github.com/matteomeli/adamant/engine/renderer"
)

const configPath = "testbed/adamant.toml"

type TestGame struct {
	*engine.Game

	stopWatch func()
}

type gameState struct {
	elapsed float64

	width  uint32
	height uint32

	// Seconds between FPS log lines.
	logAccumulator float64
}

func NewTestGame() (*TestGame, error) {
	config := engine.DefaultApplicationConfig()
	if _, err := os.Stat(configPath); err == nil {
		loaded, err := engine.LoadApplicationConfig(configPath)
		if err != nil {
			return nil, err
		}
		config = loaded
	}

	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: config,
			State: &gameState{
				width:  config.StartWidth,
				height: config.StartHeight,
			},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown

	return tg, nil
}

func (g *TestGame) Initialize() error {
	core.LogDebug("TestGame Initialize fn....")

	if _, err := os.Stat(configPath); err == nil {
		stop, err := engine.WatchConfig(configPath)
		if err != nil {
			core.LogWarn("config watching disabled: %s", err)
		} else {
			g.stopWatch = stop
		}
	}
	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.State.(*gameState)
	state.elapsed += deltaTime

	// Slowly cycle the clear color so device and swapchain activity is
	// visible at a glance.
	t := state.elapsed * 0.5
	renderer.SetClearColor([4]float32{
		float32(0.5 + 0.5*math.Sin(t)),
		float32(0.5 + 0.5*math.Sin(t+2.0)),
		float32(0.5 + 0.5*math.Sin(t+4.0)),
		1.0,
	})

	state.logAccumulator += deltaTime
	if state.logAccumulator >= 1.0 {
		state.logAccumulator = 0
		fps, frameTime := core.MetricsFrame()
		core.LogDebug("%.1f FPS, %.2f ms", fps, frameTime)
	}
	return nil
}

func (g *TestGame) Render(deltaTime float64) error {
	// The engine already clears and presents; nothing else to record yet.
	return nil
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	state := g.State.(*gameState)
	state.width = width
	state.height = height
	core.LogDebug("TestGame resized to %dx%d", width, height)
	return nil
}

func (g *TestGame) Shutdown() error {
	core.LogDebug("TestGame Shutdown fn....")
	if g.stopWatch != nil {
		g.stopWatch()
		g.stopWatch = nil
	}
	return nil
}
