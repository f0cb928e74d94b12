package state

import "strings"

// HeaterKind separates true heaters from temperature-controlled fans.
type HeaterKind int

const (
	KindHeater HeaterKind = iota
	KindTemperatureFan
)

func (k HeaterKind) String() string {
	if k == KindTemperatureFan {
		return "temperature_fan"
	}
	return "heater"
}

// temperatureFanMarker is the Klipper object prefix for temperature fans.
const temperatureFanMarker = "temperature_fan"

// KindForName classifies a sensor by its Klipper object name.
func KindForName(name string) HeaterKind {
	if strings.Contains(name, temperatureFanMarker) {
		return KindTemperatureFan
	}
	return KindHeater
}

// Heater is a heater-like sensor. For temperature fans Power holds the fan
// speed.
type Heater struct {
	Name        string
	Kind        HeaterKind
	Temperature float64
	Target      float64
	Power       float64
}

// Position is the live toolhead position.
type Position struct {
	X, Y, Z float64
}

// Homed holds per-axis homing and the quad gantry level flag.
type Homed struct {
	X, Y, Z bool
	QGL     bool
}

// All reports whether every axis is homed.
func (h Homed) All() bool {
	return h.X && h.Y && h.Z
}

// Toolhead is the motion side of the printer.
type Toolhead struct {
	Position         Position
	Homed            Homed
	FanSpeed         float64
	Speed            float64
	ExtruderVelocity float64
}

// FileMetadata is the subset of server.files.metadata krui shows.
type FileMetadata struct {
	Filename         string  `json:"filename"`
	Size             float64 `json:"size"`
	Slicer           string  `json:"slicer"`
	SlicerVersion    string  `json:"slicer_version"`
	EstimatedTime    float64 `json:"estimated_time"`
	LayerHeight      float64 `json:"layer_height"`
	FirstLayerHeight float64 `json:"first_layer_height"`
	ObjectHeight     float64 `json:"object_height"`
	FilamentTotal    float64 `json:"filament_total"`
}

// CurrentPrint exists only while the printer is printing.
type CurrentPrint struct {
	Filename      string
	TotalDuration float64
	PrintDuration float64
	FilamentUsed  float64
	CurrentLayer  float64
	TotalLayers   float64
	Progress      float64
	Metadata      *FileMetadata
}

// Print states reported by print_stats.
const (
	PrintStandby   = "standby"
	PrintPrinting  = "printing"
	PrintPaused    = "paused"
	PrintComplete  = "complete"
	PrintCancelled = "cancelled"
	PrintError     = "error"
)

// Printer is the canonical mirror of the remote device. It is a plain value
// owned by the link's consumer loop.
type Printer struct {
	Connected      bool
	Heaters        []Heater
	Toolhead       Toolhead
	State          string
	StateMessage   string
	PrintState     string
	StepperEnabled bool
	FilamentOK     bool
	Filament       map[string]bool // last filament_detected per sensor
	SystemLoad     float64
	CurrentPrint   *CurrentPrint
}

// NewPrinter returns the empty snapshot used before any data arrives.
func NewPrinter() Printer {
	return Printer{State: "unknown"}
}

// Heater returns the sensor named name.
func (p Printer) Heater(name string) (Heater, bool) {
	if i := p.heaterIndex(name); i >= 0 {
		return p.Heaters[i], true
	}
	return Heater{}, false
}

// Printing reports whether a print is in progress.
func (p Printer) Printing() bool {
	return p.PrintState == PrintPrinting
}

func (p Printer) heaterIndex(name string) int {
	for i, h := range p.Heaters {
		if h.Name == name {
			return i
		}
	}
	return -1
}

// Clone returns a copy that shares no slices or pointers with p.
func (p Printer) Clone() Printer {
	out := p
	if p.Heaters != nil {
		out.Heaters = make([]Heater, len(p.Heaters))
		copy(out.Heaters, p.Heaters)
	}
	if p.Filament != nil {
		out.Filament = make(map[string]bool, len(p.Filament))
		for name, detected := range p.Filament {
			out.Filament[name] = detected
		}
	}
	if p.CurrentPrint != nil {
		cp := *p.CurrentPrint
		if cp.Metadata != nil {
			meta := *cp.Metadata
			cp.Metadata = &meta
		}
		out.CurrentPrint = &cp
	}
	return out
}
