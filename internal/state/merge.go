package state

// Merge folds d into p and returns the result; p itself is not modified.
// A field the delta does not mention keeps its value, a field it mentions
// always overwrites. The steps run in a fixed order because later steps
// read values earlier ones may have just written.
func Merge(p Printer, d Delta) Printer {
	out := p.Clone()
	discoverHeaters(&out, d)
	updateHeaters(&out, d)
	applyMotion(&out, d)
	applyPhase(&out, d)
	applyPrint(&out, d)
	applyHoming(&out, d)
	applyScalars(&out, d)
	if d.Connected != nil {
		out.Connected = *d.Connected
	}
	return out
}

func discoverHeaters(p *Printer, d Delta) {
	for _, name := range d.AvailableHeaters {
		addHeater(p, name)
	}
	// available_sensors also lists plain thermistors; only temperature fans
	// are tracked from it.
	for _, name := range d.AvailableSensors {
		if KindForName(name) == KindTemperatureFan {
			addHeater(p, name)
		}
	}
}

func addHeater(p *Printer, name string) {
	if name == "" || p.heaterIndex(name) >= 0 {
		return
	}
	p.Heaters = append(p.Heaters, Heater{Name: name, Kind: KindForName(name)})
}

func updateHeaters(p *Printer, d Delta) {
	if len(d.Sensors) == 0 {
		return
	}
	for i := range p.Heaters {
		h := &p.Heaters[i]
		s, ok := d.Sensors[h.Name]
		if !ok {
			continue
		}
		if s.Temperature != nil {
			h.Temperature = *s.Temperature
		}
		if s.Target != nil {
			h.Target = *s.Target
		}
		switch {
		case h.Kind == KindTemperatureFan && s.Speed != nil:
			h.Power = *s.Speed
		case s.Power != nil:
			h.Power = *s.Power
		}
	}
}

func applyMotion(p *Printer, d Delta) {
	m := d.Motion
	if m == nil {
		return
	}
	if m.Position != nil {
		p.Toolhead.Position = *m.Position
	}
	if m.Velocity != nil {
		p.Toolhead.Speed = *m.Velocity
	}
	if m.ExtruderVelocity != nil {
		p.Toolhead.ExtruderVelocity = *m.ExtruderVelocity
	}
}

func applyPhase(p *Printer, d Delta) {
	if ph := d.Phase; ph != nil {
		if ph.State != nil {
			p.State = *ph.State
		}
		if ph.StateMessage != nil {
			p.StateMessage = *ph.StateMessage
		}
	}
	if d.PrintStats != nil && d.PrintStats.State != nil {
		p.PrintState = *d.PrintStats.State
	}
}

func applyPrint(p *Printer, d Delta) {
	if p.PrintState != PrintPrinting {
		p.CurrentPrint = nil
		return
	}
	if p.CurrentPrint == nil {
		p.CurrentPrint = &CurrentPrint{}
	}
	cp := p.CurrentPrint
	if ps := d.PrintStats; ps != nil {
		if ps.Filename != nil {
			if *ps.Filename != cp.Filename {
				cp.Metadata = nil
			}
			cp.Filename = *ps.Filename
		}
		if ps.TotalDuration != nil {
			cp.TotalDuration = *ps.TotalDuration
		}
		if ps.PrintDuration != nil {
			cp.PrintDuration = *ps.PrintDuration
		}
		if ps.FilamentUsed != nil {
			cp.FilamentUsed = *ps.FilamentUsed
		}
		if ps.CurrentLayer != nil {
			cp.CurrentLayer = *ps.CurrentLayer
		}
		if ps.TotalLayers != nil {
			cp.TotalLayers = *ps.TotalLayers
		}
	}
	if d.Progress != nil {
		cp.Progress = *d.Progress
	}
}

func applyHoming(p *Printer, d Delta) {
	if d.HomedAxes != nil {
		axes := *d.HomedAxes
		p.Toolhead.Homed.X = containsAxis(axes, 'x')
		p.Toolhead.Homed.Y = containsAxis(axes, 'y')
		p.Toolhead.Homed.Z = containsAxis(axes, 'z')
	}
	if d.QGLApplied != nil {
		p.Toolhead.Homed.QGL = *d.QGLApplied
	}
}

func containsAxis(axes string, axis byte) bool {
	for i := 0; i < len(axes); i++ {
		if axes[i] == axis || axes[i] == axis-'a'+'A' {
			return true
		}
	}
	return false
}

func applyScalars(p *Printer, d Delta) {
	if d.FanSpeed != nil {
		p.Toolhead.FanSpeed = *d.FanSpeed
	}
	if d.SystemLoad != nil {
		p.SystemLoad = *d.SystemLoad
	}
	if len(d.Filament) > 0 {
		if p.Filament == nil {
			p.Filament = make(map[string]bool, len(d.Filament))
		}
		for name, detected := range d.Filament {
			p.Filament[name] = detected
		}
		p.FilamentOK = true
		for _, detected := range p.Filament {
			p.FilamentOK = p.FilamentOK && detected
		}
	}
	if d.StepperEnabled != nil {
		p.StepperEnabled = *d.StepperEnabled
	}
}

// SetMetadata attaches file metadata to the active print when it is for the
// same file, or when the metadata does not name a file. It reports whether
// the metadata was applied.
func SetMetadata(p Printer, meta FileMetadata) (Printer, bool) {
	if p.CurrentPrint == nil {
		return p, false
	}
	if meta.Filename != "" && meta.Filename != p.CurrentPrint.Filename {
		return p, false
	}
	out := p.Clone()
	out.CurrentPrint.Metadata = &meta
	return out, true
}

// ForceError marks the printer as failed and drops the active print. The
// emergency stop path uses it before the transport is torn down.
func ForceError(p Printer) Printer {
	out := p.Clone()
	out.PrintState = PrintError
	out.CurrentPrint = nil
	return out
}
