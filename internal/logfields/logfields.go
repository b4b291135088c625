package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyOrigin     = "origin"
	KeyAction     = "action"
	KeyStatus     = "status"
	KeyProfile    = "profile"
	KeyScheduleID = "schedule_id"
	KeyRunID      = "run_id"
	KeyMethod     = "method"
	KeyPath       = "path"
	KeyHTTPStatus = "http_status"
	KeyRemoteAddr = "remote_addr"
	KeyUserAgent  = "user_agent"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Origin(o string) slog.Attr      { return slog.String(KeyOrigin, o) }
func Action(a string) slog.Attr      { return slog.String(KeyAction, a) }
func Status(s string) slog.Attr      { return slog.String(KeyStatus, s) }
func Profile(name string) slog.Attr  { return slog.String(KeyProfile, name) }
func ScheduleID(id string) slog.Attr { return slog.String(KeyScheduleID, id) }
func RunID(id string) slog.Attr      { return slog.String(KeyRunID, id) }
func Method(m string) slog.Attr      { return slog.String(KeyMethod, m) }
func Path(p string) slog.Attr        { return slog.String(KeyPath, p) }
func HTTPStatus(code int) slog.Attr  { return slog.Int(KeyHTTPStatus, code) }
func RemoteAddr(a string) slog.Attr  { return slog.String(KeyRemoteAddr, a) }
func UserAgent(ua string) slog.Attr  { return slog.String(KeyUserAgent, ua) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
