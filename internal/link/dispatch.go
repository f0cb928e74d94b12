package link

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/five82/krui/internal/moonraker"
	"github.com/five82/krui/internal/state"
	"github.com/five82/krui/internal/transport"
)

func (l *Link) handleFrame(frame transport.Frame) {
	switch frame.Kind {
	case transport.FrameOpen:
		l.logger.Info().Uint64("session", frame.Session).Msg("session open, starting handshake")
		l.handshake()
	case transport.FrameClose:
		l.sessionClosed(frame)
	case transport.FrameText:
		l.handleText(frame.Data)
	}
}

func (l *Link) sessionClosed(frame transport.Frame) {
	dropped := l.calls.Pending()
	l.calls.Reset()
	l.metadataFor = ""
	l.printer.Connected = false
	ev := l.logger.Info().Uint64("session", frame.Session).Int("dropped_calls", dropped)
	if frame.Err != nil {
		ev = ev.Err(frame.Err)
	}
	ev.Msg("session closed, reconnecting")
}

func (l *Link) handleText(data []byte) {
	in, err := moonraker.Classify(data)
	if err != nil {
		l.logger.Warn().Err(err).Int("bytes", len(data)).Msg("dropping frame")
		return
	}
	switch in.Kind {
	case moonraker.KindResponse:
		method, ok := l.calls.Resolve(in.ID)
		if !ok {
			l.logger.Debug().Str("id", in.ID).Msg("response for unknown call")
			return
		}
		l.handleResponse(method, in.Result)
	case moonraker.KindError:
		method, ok := l.calls.Resolve(in.ID)
		if !ok {
			l.logger.Debug().Str("id", in.ID).Msg("error reply for unknown call")
			return
		}
		l.handleError(method, in.Err)
	case moonraker.KindNotification:
		l.handleNotification(in.Method, in.Params)
	}
}

// handleResponse routes a result by the method of the call it answers.
func (l *Link) handleResponse(method string, result json.RawMessage) {
	switch method {
	case moonraker.MethodIdentify:
		l.tr.MarkLive()
		l.logger.Info().Msg("identified, link live")

	case moonraker.MethodServerInfo:
		var info moonraker.ServerInfo
		if err := json.Unmarshal(result, &info); err != nil {
			l.shapeMismatch(method, err)
			return
		}
		l.server = info
		l.printer.Connected = info.Ready()

	case moonraker.MethodObjectsList:
		var list moonraker.ObjectList
		if err := json.Unmarshal(result, &list); err != nil {
			l.shapeMismatch(method, err)
			return
		}
		params := moonraker.AllFields(list.Objects)
		l.mustCall(moonraker.MethodObjectsQuery, params)
		l.mustCall(moonraker.MethodObjectsSubscribe, params)

	case moonraker.MethodObjectsQuery, moonraker.MethodObjectsSubscribe:
		var status moonraker.ObjectStatus
		if err := json.Unmarshal(result, &status); err != nil {
			l.shapeMismatch(method, err)
			return
		}
		l.applyStatus(status.Status)

	case moonraker.MethodHistoryList:
		var list moonraker.HistoryList
		if err := json.Unmarshal(result, &list); err != nil {
			l.shapeMismatch(method, err)
			return
		}
		for _, job := range list.Jobs {
			l.addJob(job)
		}

	case moonraker.MethodFileMetadata:
		var meta state.FileMetadata
		if err := json.Unmarshal(result, &meta); err != nil {
			l.shapeMismatch(method, err)
			return
		}
		next, ok := state.SetMetadata(l.printer, meta)
		if !ok {
			l.logger.Debug().Str("file", meta.Filename).Msg("metadata for inactive file")
			return
		}
		l.printer = next

	default:
		l.logger.Debug().Str("method", method).RawJSON("result", compact(result)).Msg("command acknowledged")
	}
}

func (l *Link) handleError(method string, rpcErr *moonraker.RPCError) {
	l.logger.Warn().Str("method", method).Int("code", rpcErr.Code).Str("message", rpcErr.Message).Msg("call failed")
	switch method {
	case moonraker.MethodGCodeScript:
		l.console.AppendError(rpcErr.Message)
	case moonraker.MethodIdentify:
		// Without an identity the session can never go live; drop it and
		// let the supervisor redial and repeat the handshake.
		l.logger.Warn().Msg("identify rejected, restarting session")
		l.tr.CloseSession()
	}
}

func (l *Link) handleNotification(method string, params json.RawMessage) {
	switch method {
	case moonraker.NotifyKlippyShutdown, moonraker.NotifyKlippyDisconnected:
		l.logger.Warn().Str("notification", method).Msg("klippy unavailable")
		l.printer.Connected = false

	case moonraker.NotifyKlippyReady:
		l.logger.Info().Msg("klippy ready, repeating handshake")
		l.printer.Connected = true
		l.handshake()

	case moonraker.NotifyStatusUpdate:
		delta, err := firstParam(params)
		if err != nil {
			l.shapeMismatch(method, err)
			return
		}
		l.applyStatus(delta)

	case moonraker.NotifyHistoryChanged:
		raw, err := firstParam(params)
		if err != nil {
			l.shapeMismatch(method, err)
			return
		}
		var change moonraker.HistoryChanged
		if err := json.Unmarshal(raw, &change); err != nil {
			l.shapeMismatch(method, err)
			return
		}
		if change.Action != moonraker.HistoryActionAdded {
			l.logger.Debug().Str("action", change.Action).Msg("ignoring history change")
			return
		}
		l.addJob(change.Job)

	case moonraker.NotifyGCodeResponse:
		raw, err := firstParam(params)
		if err != nil {
			l.shapeMismatch(method, err)
			return
		}
		var line string
		if err := json.Unmarshal(raw, &line); err != nil {
			l.shapeMismatch(method, err)
			return
		}
		l.console.AppendResponse(line)

	default:
		l.logger.Debug().Str("notification", method).Msg("unhandled notification")
	}
}

// applyStatus merges a status object and fetches metadata for a print that
// does not have it yet.
func (l *Link) applyStatus(raw json.RawMessage) {
	delta := state.DecodeDelta(raw)
	for _, problem := range delta.Problems {
		l.reportProblem(problem)
	}
	l.printer = state.Merge(l.printer, delta)

	cp := l.printer.CurrentPrint
	if cp == nil {
		l.metadataFor = ""
		return
	}
	if cp.Filename == "" || cp.Metadata != nil || cp.Filename == l.metadataFor {
		return
	}
	l.metadataFor = cp.Filename
	l.mustCall(moonraker.MethodFileMetadata, moonraker.FilenameParams{Filename: cp.Filename})
}

// reportProblem warns about malformed fields of objects the snapshot reads.
// Objects it never reads, such as gcode macros, are only logged at debug.
func (l *Link) reportProblem(problem error) {
	var fe *state.FieldError
	if errors.As(problem, &fe) && !state.Tracked(fe.Object) {
		if _, ok := l.printer.Heater(fe.Object); !ok {
			l.logger.Debug().Err(problem).Msg("skipping field of untracked object")
			return
		}
	}
	l.logger.Warn().Err(problem).Msg("skipping status field")
}

func (l *Link) addJob(raw json.RawMessage) {
	rec, problems, err := state.DecodeJob(raw)
	for _, problem := range problems {
		l.logger.Warn().Err(problem).Msg("skipping history field")
	}
	if err != nil {
		l.logger.Warn().Err(err).Msg("dropping history job")
		return
	}
	l.history.Add(rec)
}

var errMissingParams = errors.New("notification has no params")

func (l *Link) shapeMismatch(method string, err error) {
	l.logger.Warn().Err(err).Str("method", method).Msg("unexpected payload shape")
}

// firstParam returns params[0]. Moonraker wraps notification payloads in a
// one-element array; a bare object is accepted as well.
func firstParam(params json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(params)
	if len(trimmed) == 0 {
		return nil, errMissingParams
	}
	if trimmed[0] != '[' {
		return trimmed, nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, errMissingParams
	}
	return list[0], nil
}

func compact(raw json.RawMessage) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return []byte("null")
	}
	return buf.Bytes()
}
