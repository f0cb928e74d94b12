// Package state holds krui's mirror of the printer and the rules for folding
// Moonraker status updates into it.
//
// # Overview
//
// Moonraker never sends the whole printer state after the initial query. It
// sends partial objects: a notify_status_update carries only the Klipper
// objects and fields that changed since the last one. This package keeps a
// canonical Printer value and merges each partial update into it.
//
//	raw status JSON ──→ DecodeDelta ──→ Delta ──→ Merge(snapshot, delta) ──→ snapshot'
//
// # Core Types
//
// Printer:
//   - Plain value, owned by the link's consumer loop
//   - Heaters in discovery order, each tagged heater or temperature fan
//   - Toolhead position, homing flags, fan and velocity readings
//   - Klipper phase (webhooks state), print phase and an optional CurrentPrint
//
// Delta:
//   - A decoded partial update; nil fields were not mentioned
//   - Problems lists fields that were present but had the wrong shape
//
// History:
//   - Jobs known from server.history.list and notify_history_changed
//   - De-duplicated by filename, first record wins
//
// # Merge Rules
//
// Merge is a pure function. It never mutates its input and applying the
// same delta twice gives the same result as applying it once.
//
//   - A field absent from the delta keeps its previous value
//   - A field present in the delta overwrites, including zero values
//   - A malformed field is skipped; the rest of the delta still applies
//
// The steps run in a fixed order:
//
//  1. Heater discovery from heaters.available_heaters and, for temperature
//     fans only, heaters.available_sensors
//  2. Readings for already discovered heaters (a fan's speed is its power)
//  3. Live motion from motion_report
//  4. Klipper phase from webhooks and print phase from print_stats
//  5. Print bookkeeping: CurrentPrint exists only while printing, and a
//     filename change drops stale metadata
//  6. Homing from toolhead.homed_axes, which is authoritative for x, y and z
//  7. Scalars: part fan, system load, filament sensors, steppers
//
// Readings for a sensor that has not been discovered yet are dropped. The
// initial printer.objects.query always carries the heaters object, so the
// next update fills them in.
//
// # Filament Sensors
//
// Any object whose name starts with filament_switch_sensor or
// filament_motion_sensor counts. The last reading of each sensor is kept,
// and FilamentOK is true only while every sensor seen so far detects
// filament.
//
// # Usage Example
//
//	snap := state.NewPrinter()
//	for delta := range updates {
//		d := state.DecodeDelta(delta)
//		for _, p := range d.Problems {
//			log.Debug().Err(p).Msg("skipped status field")
//		}
//		snap = state.Merge(snap, d)
//	}
package state
