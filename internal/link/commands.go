package link

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/five82/krui/internal/moonraker"
	"github.com/five82/krui/internal/state"
)

// GCode runs script on the printer and echoes it to the console.
func (l *Link) GCode(script string) error {
	script = strings.TrimSpace(script)
	if script == "" {
		return nil
	}
	if _, err := l.Submit(moonraker.MethodGCodeScript, moonraker.GCodeParams{Script: script}); err != nil {
		return err
	}
	l.console.AppendCommand(script)
	return nil
}

// SetTarget changes the target temperature of a discovered heater or
// temperature fan.
func (l *Link) SetTarget(name string, target float64) error {
	h, ok := l.printer.Heater(name)
	if !ok {
		return fmt.Errorf("set target: unknown heater %q", name)
	}
	if target < 0 {
		return fmt.Errorf("set target: negative target %v", target)
	}
	return l.GCode(targetCommand(h, target))
}

func targetCommand(h state.Heater, target float64) string {
	t := strconv.FormatFloat(target, 'f', -1, 64)
	if h.Kind == state.KindTemperatureFan {
		return fmt.Sprintf("SET_TEMPERATURE_FAN_TARGET TEMPERATURE_FAN=%s TARGET=%s", objectSuffix(h.Name), t)
	}
	return fmt.Sprintf("SET_HEATER_TEMPERATURE HEATER=%s TARGET=%s", objectSuffix(h.Name), t)
}

// objectSuffix strips the Klipper section type from names such as
// "temperature_fan chamber" or "heater_generic enclosure".
func objectSuffix(name string) string {
	if i := strings.LastIndexByte(name, ' '); i >= 0 {
		return name[i+1:]
	}
	return name
}

// Home homes the given axes, or all of them when none are named.
func (l *Link) Home(axes ...string) error {
	cmd := "G28"
	for _, axis := range axes {
		axis = strings.ToUpper(strings.TrimSpace(axis))
		switch axis {
		case "X", "Y", "Z":
			cmd += " " + axis
		default:
			return fmt.Errorf("home: unknown axis %q", axis)
		}
	}
	return l.GCode(cmd)
}

// QuadGantryLevel levels the gantry.
func (l *Link) QuadGantryLevel() error {
	return l.GCode("QUAD_GANTRY_LEVEL")
}

// StartPrint prints a file from the printer's gcode directory.
func (l *Link) StartPrint(filename string) error {
	if filename == "" {
		return errors.New("start print: empty filename")
	}
	_, err := l.Submit(moonraker.MethodPrintStart, moonraker.FilenameParams{Filename: filename})
	return err
}

// PausePrint pauses the active print.
func (l *Link) PausePrint() error {
	_, err := l.Submit(moonraker.MethodPrintPause, nil)
	return err
}

// ResumePrint resumes a paused print.
func (l *Link) ResumePrint() error {
	_, err := l.Submit(moonraker.MethodPrintResume, nil)
	return err
}

// CancelPrint cancels the active print.
func (l *Link) CancelPrint() error {
	_, err := l.Submit(moonraker.MethodPrintCancel, nil)
	return err
}

// FirmwareRestart restarts Klipper and its MCUs. It works while Klippy is
// shut down, which is when it is needed.
func (l *Link) FirmwareRestart() error {
	if _, err := l.Submit(moonraker.MethodFirmwareRestart, nil); err != nil {
		return err
	}
	l.printer.State = "starting"
	l.console.AppendCommand("FIRMWARE_RESTART")
	return nil
}

// EmergencyStop sends printer.emergency_stop, marks the print as failed
// locally, and drops the connection. The usual reconnect and handshake
// follow. The stop is queued ahead of the close, so it is written before
// the socket goes away. With no session there is nothing to stop and the
// call only updates the local state.
func (l *Link) EmergencyStop() error {
	_, err := l.call(moonraker.MethodEmergencyStop, nil)
	if err != nil {
		l.logger.Warn().Err(err).Msg("emergency stop not sent")
	} else {
		l.logger.Warn().Msg("emergency stop sent")
	}
	l.printer = state.ForceError(l.printer)
	l.metadataFor = ""
	l.tr.CloseSession()
	return err
}
