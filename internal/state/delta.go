package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Klipper object names read by the merge.
const (
	objHeaters        = "heaters"
	objMotionReport   = "motion_report"
	objWebhooks       = "webhooks"
	objPrintStats     = "print_stats"
	objVirtualSDCard  = "virtual_sdcard"
	objToolhead       = "toolhead"
	objQuadGantry     = "quad_gantry_level"
	objFan            = "fan"
	objSystemStats    = "system_stats"
	objStepperEnable  = "stepper_enable"
	keyConnected      = "connected"
	prefixFilamentSw  = "filament_switch_sensor"
	prefixFilamentMot = "filament_motion_sensor"
)

// FieldError records a delta field that was present but had the wrong shape.
type FieldError struct {
	Object string
	Path   string
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// SensorDelta carries the numeric fields of one heater-like object.
type SensorDelta struct {
	Temperature *float64
	Target      *float64
	Power       *float64
	Speed       *float64
}

func (s SensorDelta) empty() bool {
	return s.Temperature == nil && s.Target == nil && s.Power == nil && s.Speed == nil
}

// MotionDelta is the live motion report.
type MotionDelta struct {
	Position         *Position
	Velocity         *float64
	ExtruderVelocity *float64
}

// PhaseDelta is the webhooks connectivity block.
type PhaseDelta struct {
	State        *string
	StateMessage *string
}

// PrintStatsDelta is the print_stats block.
type PrintStatsDelta struct {
	State         *string
	Filename      *string
	TotalDuration *float64
	PrintDuration *float64
	FilamentUsed  *float64
	CurrentLayer  *float64
	TotalLayers   *float64
}

// Delta is a partial status update decoded once, defensively. A nil field
// means the update did not mention it. Fields that were present but
// malformed are left nil and listed in Problems.
type Delta struct {
	AvailableHeaters []string
	AvailableSensors []string
	Sensors          map[string]SensorDelta
	Motion           *MotionDelta
	Phase            *PhaseDelta
	PrintStats       *PrintStatsDelta
	Progress         *float64
	HomedAxes        *string
	QGLApplied       *bool
	FanSpeed         *float64
	SystemLoad       *float64
	Filament         map[string]bool
	StepperEnabled   *bool
	Connected        *bool

	Problems []error
}

type rawObject map[string]json.RawMessage

type decoder struct {
	problems []error
}

func (d *decoder) fail(path string, err error) {
	object, _, _ := strings.Cut(path, ".")
	d.problems = append(d.problems, &FieldError{Object: object, Path: path, Err: err})
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// object decodes raw as a JSON object. Null yields nil silently; any other
// non-object is recorded as a problem.
func (d *decoder) object(path string, raw json.RawMessage) rawObject {
	if isNull(raw) {
		return nil
	}
	var obj rawObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		d.fail(path, err)
		return nil
	}
	return obj
}

// field decodes obj[key] into T. Absent and null values return nil.
func field[T any](d *decoder, obj rawObject, path, key string) *T {
	raw, ok := obj[key]
	if !ok || isNull(raw) {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		d.fail(path+"."+key, err)
		return nil
	}
	return &v
}

// DecodeDelta turns a raw status object into a Delta. It never fails as a
// whole unless the payload is not an object at all; individual malformed
// fields are skipped and reported in Delta.Problems.
func DecodeDelta(raw json.RawMessage) Delta {
	var d decoder
	top := d.object("status", raw)
	delta := decodeObjects(&d, top)
	delta.Problems = d.problems
	return delta
}

func decodeObjects(d *decoder, top rawObject) Delta {
	var delta Delta
	if top == nil {
		return delta
	}

	if heaters := d.object(objHeaters, top[objHeaters]); heaters != nil {
		if names := field[[]string](d, heaters, objHeaters, "available_heaters"); names != nil {
			delta.AvailableHeaters = *names
		}
		if names := field[[]string](d, heaters, objHeaters, "available_sensors"); names != nil {
			delta.AvailableSensors = *names
		}
	}

	if motion := d.object(objMotionReport, top[objMotionReport]); motion != nil {
		m := &MotionDelta{
			Velocity:         field[float64](d, motion, objMotionReport, "live_velocity"),
			ExtruderVelocity: field[float64](d, motion, objMotionReport, "live_extruder_velocity"),
		}
		if pos := field[[]float64](d, motion, objMotionReport, "live_position"); pos != nil {
			if len(*pos) < 3 {
				d.fail(objMotionReport+".live_position", fmt.Errorf("want at least 3 axes, got %d", len(*pos)))
			} else {
				m.Position = &Position{X: (*pos)[0], Y: (*pos)[1], Z: (*pos)[2]}
			}
		}
		if m.Position != nil || m.Velocity != nil || m.ExtruderVelocity != nil {
			delta.Motion = m
		}
	}

	if hooks := d.object(objWebhooks, top[objWebhooks]); hooks != nil {
		p := &PhaseDelta{
			State:        field[string](d, hooks, objWebhooks, "state"),
			StateMessage: field[string](d, hooks, objWebhooks, "state_message"),
		}
		if p.State != nil || p.StateMessage != nil {
			delta.Phase = p
		}
	}

	if stats := d.object(objPrintStats, top[objPrintStats]); stats != nil {
		ps := &PrintStatsDelta{
			State:         field[string](d, stats, objPrintStats, "state"),
			Filename:      field[string](d, stats, objPrintStats, "filename"),
			TotalDuration: field[float64](d, stats, objPrintStats, "total_duration"),
			PrintDuration: field[float64](d, stats, objPrintStats, "print_duration"),
			FilamentUsed:  field[float64](d, stats, objPrintStats, "filament_used"),
		}
		if info := d.object(objPrintStats+".info", stats["info"]); info != nil {
			ps.CurrentLayer = field[float64](d, info, objPrintStats+".info", "current_layer")
			ps.TotalLayers = field[float64](d, info, objPrintStats+".info", "total_layer")
		}
		delta.PrintStats = ps
	}

	if sd := d.object(objVirtualSDCard, top[objVirtualSDCard]); sd != nil {
		delta.Progress = field[float64](d, sd, objVirtualSDCard, "progress")
	}

	if th := d.object(objToolhead, top[objToolhead]); th != nil {
		delta.HomedAxes = field[string](d, th, objToolhead, "homed_axes")
	}

	if qgl := d.object(objQuadGantry, top[objQuadGantry]); qgl != nil {
		delta.QGLApplied = field[bool](d, qgl, objQuadGantry, "applied")
	}

	if fan := d.object(objFan, top[objFan]); fan != nil {
		delta.FanSpeed = field[float64](d, fan, objFan, "speed")
	}

	if stats := d.object(objSystemStats, top[objSystemStats]); stats != nil {
		delta.SystemLoad = field[float64](d, stats, objSystemStats, "sysload")
	}

	if se := d.object(objStepperEnable, top[objStepperEnable]); se != nil {
		if steppers := field[map[string]bool](d, se, objStepperEnable, "steppers"); steppers != nil {
			enabled := false
			for _, on := range *steppers {
				if on {
					enabled = true
					break
				}
			}
			delta.StepperEnabled = &enabled
		}
	}

	delta.Connected = field[bool](d, top, "status", keyConnected)

	// Map order is random; walk keys sorted so problems are reported stably.
	keys := make([]string, 0, len(top))
	for k := range top {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		switch {
		case isFilamentSensor(key):
			sensor := d.object(key, top[key])
			if sensor == nil {
				continue
			}
			if detected := field[bool](d, sensor, key, "filament_detected"); detected != nil {
				if delta.Filament == nil {
					delta.Filament = make(map[string]bool)
				}
				delta.Filament[key] = *detected
			}
		case isReservedObject(key):
		default:
			if s, ok := decodeSensor(d, key, top[key]); ok {
				if delta.Sensors == nil {
					delta.Sensors = make(map[string]SensorDelta)
				}
				delta.Sensors[key] = s
			}
		}
	}

	return delta
}

func decodeSensor(d *decoder, key string, raw json.RawMessage) (SensorDelta, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return SensorDelta{}, false
	}
	obj := d.object(key, raw)
	if obj == nil {
		return SensorDelta{}, false
	}
	s := SensorDelta{
		Temperature: field[float64](d, obj, key, "temperature"),
		Target:      field[float64](d, obj, key, "target"),
		Power:       field[float64](d, obj, key, "power"),
		Speed:       field[float64](d, obj, key, "speed"),
	}
	return s, !s.empty()
}

func isFilamentSensor(key string) bool {
	return strings.HasPrefix(key, prefixFilamentSw) || strings.HasPrefix(key, prefixFilamentMot)
}

// Tracked reports whether the merge reads object whatever the printer has
// discovered. Heaters and sensors outside this set only count once they
// appear in the heaters object.
func Tracked(object string) bool {
	return object == "status" || isFilamentSensor(object) || isReservedObject(object)
}

func isReservedObject(key string) bool {
	switch key {
	case objHeaters, objMotionReport, objWebhooks, objPrintStats, objVirtualSDCard,
		objToolhead, objQuadGantry, objFan, objSystemStats, objStepperEnable, keyConnected:
		return true
	}
	return false
}
