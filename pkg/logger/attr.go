package logger

import "log/slog"

// Error logs err under "error"; nil yields an empty attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID logs a library id under "user_id"; "" yields an empty attr.
func UserID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("user_id", id)
}

func Role(role string) slog.Attr {
	if role == "" {
		return slog.Attr{}
	}
	return slog.String("role", role)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

func AttemptID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("attempt_id", id)
}

// Warnings logs soft validation findings; an empty list yields an empty attr.
func Warnings(msgs []string) slog.Attr {
	if len(msgs) == 0 {
		return slog.Attr{}
	}
	return slog.Any("warnings", msgs)
}
