package hostsim

// Layout selects where a world keeps its bus reference. Each layout
// exercises a different probe origin: an unexported field, a getter, or
// container resolution only.
type Layout int

const (
	// BusInField stores the bus in an unexported field.
	BusInField Layout = iota
	// BusViaGetter exposes the bus only through the Bus() getter.
	BusViaGetter
	// BusViaContainer keeps the bus out of the world entirely; it is only
	// reachable through the host container.
	BusViaContainer
)

func (l Layout) String() string {
	switch l {
	case BusInField:
		return "field"
	case BusViaGetter:
		return "getter"
	case BusViaContainer:
		return "container"
	default:
		return "unknown"
	}
}

// busHolder hides a bus reference from flat field walks. Getter-wired
// worlds keep their bus here so only the Bus() getter reveals it.
type busHolder struct {
	bus *SignalBus
}

// World is the root object probes walk. Only one of the bus references is
// populated, depending on the layout.
type World struct {
	Name   string
	Ticks  uint64
	Actors []string

	layout Layout
	bus    *SignalBus
	holder *busHolder
}

// NewWorld wires a world to its bus using the given layout.
func NewWorld(name string, layout Layout, bus *SignalBus) *World {
	w := &World{Name: name, layout: layout, Actors: []string{"hero"}}
	switch layout {
	case BusInField:
		w.bus = bus
	case BusViaGetter:
		w.holder = &busHolder{bus: bus}
	}
	return w
}

// Bus returns the bus for getter-wired worlds and nil otherwise.
func (w *World) Bus() *SignalBus {
	if w.holder == nil {
		return nil
	}
	return w.holder.bus
}

// Clock returns the world age in ticks.
func (w *World) Clock() uint64 { return w.Ticks }

// Banner panics until the world has ticked at least once, simulating a
// getter backed by an asset that is not loaded yet.
func (w *World) Banner() string {
	if w.Ticks == 0 {
		panic("hostsim: banner not loaded")
	}
	return "welcome to " + w.Name
}

// Advance moves the world forward one tick.
func (w *World) Advance() {
	w.Ticks++
}
