package state

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func mergeJSON(t *testing.T, p Printer, raw string) Printer {
	t.Helper()
	d := DecodeDelta(json.RawMessage(raw))
	if len(d.Problems) > 0 {
		t.Fatalf("DecodeDelta(%s) problems: %v", raw, d.Problems)
	}
	return Merge(p, d)
}

func TestMerge_DiscoveryThenUpdate(t *testing.T) {
	s0 := mergeJSON(t, NewPrinter(), `{"heaters":{"available_heaters":["heater_bed","extruder"]}}`)

	if len(s0.Heaters) != 2 {
		t.Fatalf("len(Heaters) = %d, want 2", len(s0.Heaters))
	}
	for i, name := range []string{"heater_bed", "extruder"} {
		h := s0.Heaters[i]
		if h.Name != name || h.Kind != KindHeater {
			t.Fatalf("Heaters[%d] = %+v, want heater %q", i, h, name)
		}
		if h.Temperature != 0 || h.Target != 0 || h.Power != 0 {
			t.Fatalf("Heaters[%d] = %+v, want zeroed", i, h)
		}
	}

	s1 := mergeJSON(t, s0, `{"heater_bed":{"temperature":50.0,"power":0.5,"target":60.0}}`)
	if len(s1.Heaters) != 2 {
		t.Fatalf("len(Heaters) after update = %d, want 2", len(s1.Heaters))
	}
	bed, ok := s1.Heater("heater_bed")
	if !ok {
		t.Fatalf("heater_bed missing after update")
	}
	if bed.Temperature != 50 || bed.Power != 0.5 || bed.Target != 60 {
		t.Fatalf("heater_bed = %+v, want 50/0.5/60", bed)
	}
	if ext, _ := s1.Heater("extruder"); ext.Temperature != 0 {
		t.Fatalf("extruder changed: %+v", ext)
	}
}

func TestMerge_PartialHeaterUpdateKeepsOtherFields(t *testing.T) {
	s := mergeJSON(t, NewPrinter(), `{"heaters":{"available_heaters":["extruder"]},"extruder":{"temperature":200,"target":210,"power":0.8}}`)
	s = mergeJSON(t, s, `{"extruder":{"temperature":205}}`)

	ext, _ := s.Heater("extruder")
	if ext.Temperature != 205 || ext.Target != 210 || ext.Power != 0.8 {
		t.Fatalf("extruder = %+v, want 205/210/0.8", ext)
	}
}

func TestMerge_UnknownHeaterKeyIsIgnored(t *testing.T) {
	s := mergeJSON(t, NewPrinter(), `{"extruder":{"temperature":200}}`)
	if len(s.Heaters) != 0 {
		t.Fatalf("Heaters = %+v, want none before discovery", s.Heaters)
	}
}

func TestMerge_TemperatureFanClassification(t *testing.T) {
	s := mergeJSON(t, NewPrinter(), `{"heaters":{"available_sensors":["temperature_fan chamber","temperature_sensor mcu","heater_bed"]}}`)

	if len(s.Heaters) != 1 {
		t.Fatalf("Heaters = %+v, want only the temperature fan", s.Heaters)
	}
	fan := s.Heaters[0]
	if fan.Name != "temperature_fan chamber" || fan.Kind != KindTemperatureFan {
		t.Fatalf("Heaters[0] = %+v, want temperature fan", fan)
	}

	s = mergeJSON(t, s, `{"temperature_fan chamber":{"temperature":50.0,"power":0.5}}`)
	if len(s.Heaters) != 1 {
		t.Fatalf("update created extra entries: %+v", s.Heaters)
	}
	fan = s.Heaters[0]
	if fan.Temperature != 50 || fan.Power != 0.5 || fan.Kind != KindTemperatureFan {
		t.Fatalf("fan = %+v, want temperature 50 power 0.5", fan)
	}

	s = mergeJSON(t, s, `{"temperature_fan chamber":{"speed":0.25,"target":45}}`)
	fan = s.Heaters[0]
	if fan.Power != 0.25 || fan.Target != 45 || fan.Temperature != 50 {
		t.Fatalf("fan = %+v, want speed 0.25 target 45", fan)
	}
}

func TestMerge_HeaterListedTwiceIsDiscoveredOnce(t *testing.T) {
	s := mergeJSON(t, NewPrinter(), `{"heaters":{"available_heaters":["extruder","temperature_fan exhaust"],"available_sensors":["extruder","temperature_fan exhaust"]}}`)
	s = mergeJSON(t, s, `{"heaters":{"available_heaters":["extruder"]}}`)
	if len(s.Heaters) != 2 {
		t.Fatalf("Heaters = %+v, want 2 entries", s.Heaters)
	}
	if s.Heaters[1].Kind != KindTemperatureFan {
		t.Fatalf("Heaters[1].Kind = %v, want temperature fan", s.Heaters[1].Kind)
	}
}

func TestMerge_Independence(t *testing.T) {
	s0 := NewPrinter()
	s1 := mergeJSON(t, s0, `{"fan":{"speed":0.5}}`)
	s2 := mergeJSON(t, s1, `{"fan":{"speed":0.75}}`)

	if s2.Toolhead.FanSpeed != 0.75 {
		t.Fatalf("FanSpeed = %v, want 0.75", s2.Toolhead.FanSpeed)
	}
	if s2.Toolhead.Homed.X {
		t.Fatalf("Homed.X changed to true")
	}
	if s2.State != s0.State {
		t.Fatalf("State = %q, want %q", s2.State, s0.State)
	}
}

func TestMerge_FilamentSensorAnyName(t *testing.T) {
	for _, name := range []string{"filament_switch_sensor runout", "filament_switch_sensor X", "filament_motion_sensor encoder"} {
		t.Run(name, func(t *testing.T) {
			s := mergeJSON(t, NewPrinter(), `{"`+name+`":{"filament_detected":true}}`)
			if !s.FilamentOK {
				t.Fatalf("FilamentOK = false, want true")
			}
			s = mergeJSON(t, s, `{"`+name+`":{"enabled":true}}`)
			if !s.FilamentOK {
				t.Fatalf("FilamentOK reset by delta without filament_detected")
			}
		})
	}
}

func TestMerge_FilamentTrackedPerSensor(t *testing.T) {
	s := mergeJSON(t, NewPrinter(), `{"filament_switch_sensor a":{"filament_detected":false},"filament_switch_sensor b":{"filament_detected":true}}`)
	if s.FilamentOK {
		t.Fatalf("FilamentOK = true with sensor a in runout")
	}

	s = mergeJSON(t, s, `{"filament_switch_sensor b":{"filament_detected":true}}`)
	if s.FilamentOK {
		t.Fatalf("FilamentOK = true after update from b only; a is still in runout")
	}

	s = mergeJSON(t, s, `{"filament_switch_sensor a":{"filament_detected":true}}`)
	if !s.FilamentOK {
		t.Fatalf("FilamentOK = false, want true once every sensor detects filament")
	}
	if len(s.Filament) != 2 {
		t.Fatalf("Filament = %v, want 2 sensors", s.Filament)
	}
}

func TestDecodeDelta_ProblemsNameTheirObject(t *testing.T) {
	d := DecodeDelta(json.RawMessage(`{"gcode_macro PRINT_START":{"target":"bed"},"fan":{"speed":"fast"}}`))
	if len(d.Problems) != 2 {
		t.Fatalf("Problems = %v, want 2", d.Problems)
	}
	objects := map[string]bool{}
	for _, p := range d.Problems {
		var fe *FieldError
		if !errors.As(p, &fe) {
			t.Fatalf("problem %v is not a FieldError", p)
		}
		objects[fe.Object] = Tracked(fe.Object)
	}
	want := map[string]bool{"gcode_macro PRINT_START": false, "fan": true}
	if !reflect.DeepEqual(objects, want) {
		t.Fatalf("problem objects = %v, want %v", objects, want)
	}
}

func TestMerge_Motion(t *testing.T) {
	s := mergeJSON(t, NewPrinter(), `{"motion_report":{"live_position":[10.5,20.25,0.3,1200.0],"live_velocity":150,"live_extruder_velocity":2.5}}`)
	want := Toolhead{Position: Position{X: 10.5, Y: 20.25, Z: 0.3}, Speed: 150, ExtruderVelocity: 2.5}
	if s.Toolhead != want {
		t.Fatalf("Toolhead = %+v, want %+v", s.Toolhead, want)
	}

	s = mergeJSON(t, s, `{"motion_report":{"live_velocity":0}}`)
	if s.Toolhead.Position != want.Position || s.Toolhead.Speed != 0 {
		t.Fatalf("Toolhead = %+v, want position kept and speed 0", s.Toolhead)
	}
}

func TestMerge_PhaseFlags(t *testing.T) {
	s := mergeJSON(t, NewPrinter(), `{"webhooks":{"state":"shutdown","state_message":"MCU lost"},"print_stats":{"state":"error"}}`)
	if s.State != "shutdown" || s.StateMessage != "MCU lost" || s.PrintState != "error" {
		t.Fatalf("phase = %q/%q/%q", s.State, s.StateMessage, s.PrintState)
	}

	s = mergeJSON(t, s, `{"webhooks":{"state":"ready"}}`)
	if s.State != "ready" || s.StateMessage != "MCU lost" {
		t.Fatalf("phase = %q/%q, want ready and message kept", s.State, s.StateMessage)
	}
}

func TestMerge_PrintLifecycle(t *testing.T) {
	s := mergeJSON(t, NewPrinter(), `{"print_stats":{"state":"standby","filename":""}}`)
	if s.CurrentPrint != nil {
		t.Fatalf("CurrentPrint = %+v, want nil while standby", s.CurrentPrint)
	}

	s = mergeJSON(t, s, `{"print_stats":{"state":"printing","filename":"benchy.gcode","print_duration":12,"total_duration":15,"filament_used":30.5,"info":{"current_layer":2,"total_layer":120}},"virtual_sdcard":{"progress":0.05}}`)
	want := CurrentPrint{
		Filename:      "benchy.gcode",
		TotalDuration: 15,
		PrintDuration: 12,
		FilamentUsed:  30.5,
		CurrentLayer:  2,
		TotalLayers:   120,
		Progress:      0.05,
	}
	if s.CurrentPrint == nil || *s.CurrentPrint != want {
		t.Fatalf("CurrentPrint = %+v, want %+v", s.CurrentPrint, want)
	}

	s = mergeJSON(t, s, `{"print_stats":{"print_duration":20,"info":{"current_layer":null}}}`)
	if s.CurrentPrint.PrintDuration != 20 || s.CurrentPrint.CurrentLayer != 2 {
		t.Fatalf("CurrentPrint = %+v, want duration 20 and layer kept", s.CurrentPrint)
	}

	s = mergeJSON(t, s, `{"print_stats":{"state":"complete"}}`)
	if s.CurrentPrint != nil {
		t.Fatalf("CurrentPrint = %+v, want cleared after completion", s.CurrentPrint)
	}
}

func TestMerge_LazyCurrentPrintWhenAlreadyPrinting(t *testing.T) {
	s := NewPrinter()
	s.PrintState = PrintPrinting
	s = mergeJSON(t, s, `{"fan":{"speed":1}}`)
	if s.CurrentPrint == nil {
		t.Fatalf("CurrentPrint not created while printing")
	}
}

func TestMerge_FilenameChangeDropsMetadata(t *testing.T) {
	s := mergeJSON(t, NewPrinter(), `{"print_stats":{"state":"printing","filename":"a.gcode"}}`)
	s, ok := SetMetadata(s, FileMetadata{Filename: "a.gcode", EstimatedTime: 100})
	if !ok {
		t.Fatalf("SetMetadata rejected matching file")
	}

	same := mergeJSON(t, s, `{"print_stats":{"filename":"a.gcode"}}`)
	if same.CurrentPrint.Metadata == nil {
		t.Fatalf("metadata dropped for same filename")
	}

	other := mergeJSON(t, s, `{"print_stats":{"filename":"b.gcode"}}`)
	if other.CurrentPrint.Metadata != nil {
		t.Fatalf("metadata kept after filename changed")
	}
}

func TestMerge_HomingIsAuthoritative(t *testing.T) {
	s := mergeJSON(t, NewPrinter(), `{"toolhead":{"homed_axes":"xyz"}}`)
	if !s.Toolhead.Homed.All() {
		t.Fatalf("Homed = %+v, want all axes", s.Toolhead.Homed)
	}

	s = mergeJSON(t, s, `{"toolhead":{"homed_axes":"z"}}`)
	if s.Toolhead.Homed.X || s.Toolhead.Homed.Y || !s.Toolhead.Homed.Z {
		t.Fatalf("Homed = %+v, want only z", s.Toolhead.Homed)
	}

	s = mergeJSON(t, s, `{"toolhead":{"max_velocity":300}}`)
	if !s.Toolhead.Homed.Z {
		t.Fatalf("Homed changed by delta without homed_axes")
	}

	s = mergeJSON(t, s, `{"quad_gantry_level":{"applied":true}}`)
	if !s.Toolhead.Homed.QGL || !s.Toolhead.Homed.Z {
		t.Fatalf("Homed = %+v, want qgl and z", s.Toolhead.Homed)
	}
}

func TestMerge_Scalars(t *testing.T) {
	s := mergeJSON(t, NewPrinter(), `{"system_stats":{"sysload":0.42},"stepper_enable":{"steppers":{"stepper_x":false,"stepper_z":true}},"connected":true}`)
	if s.SystemLoad != 0.42 || !s.StepperEnabled || !s.Connected {
		t.Fatalf("scalars = load %v steppers %v connected %v", s.SystemLoad, s.StepperEnabled, s.Connected)
	}

	s = mergeJSON(t, s, `{"stepper_enable":{"steppers":{"stepper_x":false}}}`)
	if s.StepperEnabled {
		t.Fatalf("StepperEnabled = true, want false")
	}
}

func TestMerge_ShapeMismatchSkipsOnlyThatField(t *testing.T) {
	base := mergeJSON(t, NewPrinter(), `{"heaters":{"available_heaters":["extruder"]},"fan":{"speed":0.3},"system_stats":{"sysload":1.5}}`)

	d := DecodeDelta(json.RawMessage(`{"fan":{"speed":"fast"},"system_stats":{"sysload":0.2},"extruder":{"temperature":"hot","target":200},"motion_report":{"live_position":[1,2]}}`))
	if len(d.Problems) != 3 {
		t.Fatalf("Problems = %v, want 3", d.Problems)
	}
	s := Merge(base, d)

	if s.Toolhead.FanSpeed != 0.3 {
		t.Fatalf("FanSpeed = %v, want previous 0.3", s.Toolhead.FanSpeed)
	}
	if s.SystemLoad != 0.2 {
		t.Fatalf("SystemLoad = %v, want 0.2", s.SystemLoad)
	}
	ext, _ := s.Heater("extruder")
	if ext.Temperature != 0 || ext.Target != 200 {
		t.Fatalf("extruder = %+v, want temperature kept and target 200", ext)
	}
	if s.Toolhead.Position != (Position{}) {
		t.Fatalf("Position = %+v, want unchanged", s.Toolhead.Position)
	}
}

func TestMerge_NonObjectDeltaChangesNothing(t *testing.T) {
	base := mergeJSON(t, NewPrinter(), `{"fan":{"speed":0.3}}`)
	d := DecodeDelta(json.RawMessage(`[1,2,3]`))
	if len(d.Problems) != 1 {
		t.Fatalf("Problems = %v, want 1", d.Problems)
	}
	if got := Merge(base, d); !reflect.DeepEqual(got, base) {
		t.Fatalf("Merge changed snapshot: %+v", got)
	}
}

func TestMerge_DoesNotMutateInput(t *testing.T) {
	base := mergeJSON(t, NewPrinter(), `{"heaters":{"available_heaters":["extruder"]},"print_stats":{"state":"printing","filename":"a.gcode"}}`)
	snapshot := base.Clone()

	_ = mergeJSON(t, base, `{"extruder":{"temperature":100},"print_stats":{"print_duration":5},"heaters":{"available_heaters":["heater_bed"]}}`)
	if !reflect.DeepEqual(base, snapshot) {
		t.Fatalf("Merge mutated its input:\n got  %+v\n want %+v", base, snapshot)
	}
}

var mergeDeltas = []string{
	`{"heaters":{"available_heaters":["heater_bed","extruder"],"available_sensors":["temperature_fan chamber"]}}`,
	`{"heater_bed":{"temperature":60,"target":60,"power":0.2},"temperature_fan chamber":{"speed":0.4}}`,
	`{"print_stats":{"state":"printing","filename":"a.gcode","info":{"current_layer":3}},"virtual_sdcard":{"progress":0.5}}`,
	`{"toolhead":{"homed_axes":"xy"},"quad_gantry_level":{"applied":false},"fan":{"speed":0.5}}`,
	`{"webhooks":{"state":"ready","state_message":"Printer is ready"},"connected":true}`,
	`{"motion_report":{"live_position":[1,2,3,4],"live_velocity":5}}`,
	`{"filament_switch_sensor s":{"filament_detected":false},"stepper_enable":{"steppers":{"a":true}}}`,
	`{"print_stats":{"state":"complete"}}`,
	`{"fan":{"speed":"bad"},"extruder":{"temperature":[1]}}`,
}

func TestMerge_Idempotent(t *testing.T) {
	s := NewPrinter()
	for _, raw := range mergeDeltas {
		d := DecodeDelta(json.RawMessage(raw))
		once := Merge(s, d)
		twice := Merge(once, d)
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("Merge not idempotent for %s:\n once  %+v\n twice %+v", raw, once, twice)
		}
		s = once
	}
}

func TestMerge_FieldPreservation(t *testing.T) {
	s := NewPrinter()
	for _, raw := range mergeDeltas[:7] {
		s = Merge(s, DecodeDelta(json.RawMessage(raw)))
	}

	// A delta that mentions none of the tracked objects leaves everything alone.
	after := mergeJSON(t, s, `{"gcode_move":{"speed_factor":1.0},"idle_timeout":{"state":"Idle"}}`)
	if !reflect.DeepEqual(after, s) {
		t.Fatalf("unrelated delta changed snapshot:\n got  %+v\n want %+v", after, s)
	}
}

func TestForceError(t *testing.T) {
	s := mergeJSON(t, NewPrinter(), `{"print_stats":{"state":"printing","filename":"a.gcode"}}`)
	s = ForceError(s)
	if s.PrintState != PrintError || s.CurrentPrint != nil {
		t.Fatalf("ForceError = %q/%+v", s.PrintState, s.CurrentPrint)
	}
}

func TestSetMetadata_RejectsOtherFile(t *testing.T) {
	s := mergeJSON(t, NewPrinter(), `{"print_stats":{"state":"printing","filename":"a.gcode"}}`)
	if _, ok := SetMetadata(s, FileMetadata{Filename: "b.gcode"}); ok {
		t.Fatalf("SetMetadata accepted metadata for another file")
	}
	if _, ok := SetMetadata(NewPrinter(), FileMetadata{Filename: "a.gcode"}); ok {
		t.Fatalf("SetMetadata accepted metadata with no active print")
	}
}
