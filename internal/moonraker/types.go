package moonraker

import "encoding/json"

// Moonraker methods issued by krui.
const (
	MethodIdentify         = "server.connection.identify"
	MethodServerInfo       = "server.info"
	MethodObjectsList      = "printer.objects.list"
	MethodObjectsQuery     = "printer.objects.query"
	MethodObjectsSubscribe = "printer.objects.subscribe"
	MethodHistoryList      = "server.history.list"
	MethodFileMetadata     = "server.files.metadata"
	MethodGCodeScript      = "printer.gcode.script"
	MethodPrintStart       = "printer.print.start"
	MethodPrintPause       = "printer.print.pause"
	MethodPrintResume      = "printer.print.resume"
	MethodPrintCancel      = "printer.print.cancel"
	MethodEmergencyStop    = "printer.emergency_stop"
	MethodFirmwareRestart  = "printer.firmware_restart"
)

// Server notifications consumed by krui.
const (
	NotifyKlippyShutdown     = "notify_klippy_shutdown"
	NotifyKlippyDisconnected = "notify_klippy_disconnected"
	NotifyKlippyReady        = "notify_klippy_ready"
	NotifyStatusUpdate       = "notify_status_update"
	NotifyHistoryChanged     = "notify_history_changed"
	NotifyGCodeResponse      = "notify_gcode_response"
)

// IdentifyParams announces the client to Moonraker.
type IdentifyParams struct {
	ClientName string `json:"client_name"`
	Version    string `json:"version"`
	Type       string `json:"type"`
	URL        string `json:"url"`
}

// ObjectsParams names printer objects for query and subscribe calls. A nil
// field list asks for every field of that object.
type ObjectsParams struct {
	Objects map[string][]string `json:"objects"`
}

// AllFields builds ObjectsParams requesting every field of each object.
func AllFields(objects []string) ObjectsParams {
	params := ObjectsParams{Objects: make(map[string][]string, len(objects))}
	for _, name := range objects {
		params.Objects[name] = nil
	}
	return params
}

// HistoryListParams bounds a job history fetch.
type HistoryListParams struct {
	Limit int    `json:"limit"`
	Order string `json:"order"`
}

// FilenameParams is shared by metadata and print start calls.
type FilenameParams struct {
	Filename string `json:"filename"`
}

// GCodeParams runs a gcode script.
type GCodeParams struct {
	Script string `json:"script"`
}

// ServerInfo mirrors the fields of server.info krui cares about.
type ServerInfo struct {
	KlippyConnected  bool     `json:"klippy_connected"`
	KlippyState      string   `json:"klippy_state"`
	MoonrakerVersion string   `json:"moonraker_version"`
	Components       []string `json:"components"`
	Warnings         []string `json:"warnings"`
}

// Ready reports whether Klippy is reachable and in the ready state.
func (s ServerInfo) Ready() bool {
	return s.KlippyConnected && s.KlippyState == "ready"
}

// ObjectList is the result of printer.objects.list.
type ObjectList struct {
	Objects []string `json:"objects"`
}

// ObjectStatus is the result of printer.objects.query and subscribe.
// Status stays raw; the state package decodes it defensively.
type ObjectStatus struct {
	EventTime float64         `json:"eventtime"`
	Status    json.RawMessage `json:"status"`
}

// HistoryList is the result of server.history.list. Jobs stay raw so one
// malformed job does not discard the rest.
type HistoryList struct {
	Count int               `json:"count"`
	Jobs  []json.RawMessage `json:"jobs"`
}

// HistoryChanged is the payload of notify_history_changed.
type HistoryChanged struct {
	Action string          `json:"action"`
	Job    json.RawMessage `json:"job"`
}

// HistoryActionAdded is the history change krui folds into its job list.
const HistoryActionAdded = "added"
