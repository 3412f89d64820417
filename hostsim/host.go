// Package hostsim simulates an embedding host: a signal bus, a service
// container, worlds in several layouts and a scene-driven lifecycle. The
// examples and tests attach to it the same way an observer would attach to
// a real host.
package hostsim

import (
	"fmt"
	"sync"

	"github.com/drblury/sigtap/backend"
	"github.com/drblury/sigtap/backend/funcgate"
)

// Scene names used by the simulated host. Any scene other than the menu is
// a live session.
const (
	SceneMenu  = "menu"
	SceneArena = "arena"
)

// SpawnJoinPoint is the host ability call site exposed for interception.
var SpawnJoinPoint = backend.JoinPoint{
	Owner:  "hostsim.Host",
	Name:   "SpawnProjectile",
	Params: []string{"string", "int"},
}

// Host drives the simulation. Scene changes create and destroy worlds, and
// Tick publishes one frame of traffic. It stands in for the embedding
// process an observer attaches to.
type Host struct {
	Gates     *funcgate.Backend
	Container *Container

	mu          sync.Mutex
	scene       string
	layout      Layout
	world       *World
	bus         *SignalBus
	spawnGate   *funcgate.Gate
	projectiles []string
}

// NewHost builds a host sitting in the menu with no world.
func NewHost(layout Layout) *Host {
	return &Host{
		Gates:     funcgate.New(),
		Container: NewContainer(),
		scene:     SceneMenu,
		layout:    layout,
	}
}

// Scene returns the current scene name.
func (h *Host) Scene() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.scene
}

// World returns the live world, or nil in the menu.
func (h *Host) World() *World {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.world
}

// Bus returns the live bus, or nil in the menu. Tests reach for it
// directly; observers are expected to find it by probing.
func (h *Host) Bus() *SignalBus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bus
}

// EnterScene swaps scenes. Entering a session scene builds a fresh world
// and bus; returning to the menu tears both down, clears the container and
// resets the gates, leaving previously installed hooks inert.
func (h *Host) EnterScene(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if name == h.scene {
		return
	}
	h.scene = name

	if name == SceneMenu {
		h.world = nil
		h.bus = nil
		h.spawnGate = nil
		h.projectiles = nil
		h.Container.Clear()
		h.Gates.Reset()
		return
	}

	bus := NewSignalBus(h.Gates)
	bus.DeclareKind(KindActorMoved, KindScoreChanged, KindDoorOpened, KindFrameBlob)
	bus.MarkNativeOnly(KindFrameBlob)

	h.bus = bus
	h.world = NewWorld(name, h.layout, bus)
	h.spawnGate = h.Gates.Expose(SpawnJoinPoint.Owner, SpawnJoinPoint.Name, SpawnJoinPoint.Params...)
	if h.layout == BusViaContainer {
		h.Container.Provide(bus)
	}
}

// Tick advances the live world one frame and publishes that frame's
// traffic: one actor move and one frame blob per tick, a score change every
// third tick and a door every fifth. In the menu it does nothing.
func (h *Host) Tick() {
	h.mu.Lock()
	world, bus := h.world, h.bus
	h.mu.Unlock()
	if world == nil || bus == nil {
		return
	}

	world.Advance()
	tick := world.Ticks

	bus.Publish(KindActorMoved, ActorMoved{Actor: "hero", X: float64(tick), Y: float64(tick) / 2})
	bus.Publish(KindFrameBlob, FrameBlob{Frame: tick, Pixels: []byte{0x1f, 0x8b, 0x00}})
	if tick%3 == 0 {
		bus.Publish(KindScoreChanged, ScoreChanged{Player: "hero", Delta: 10, Total: int(tick/3) * 10})
	}
	if tick%5 == 0 {
		bus.Publish(KindDoorOpened, DoorOpened{Door: fmt.Sprintf("door-%d", tick/5), Actor: "hero"})
	}
}

// SpawnProjectile fires a host ability through its gate so hooks can watch
// or veto it. It reports whether the projectile actually spawned.
func (h *Host) SpawnProjectile(kind string, damage int) bool {
	h.mu.Lock()
	gate := h.spawnGate
	h.mu.Unlock()
	if gate == nil {
		return false
	}

	res := gate.Invoke([]any{kind, damage}, func([]any) any {
		h.mu.Lock()
		h.projectiles = append(h.projectiles, kind)
		h.mu.Unlock()
		return true
	})
	spawned, _ := res.(bool)
	return spawned
}

// Projectiles lists the projectiles spawned in the current session.
func (h *Host) Projectiles() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.projectiles...)
}
