// Package handler provides typed HTTP handlers for the portal.
//
// A HandlerFunc receives a request value already decoded by one or more
// binders and returns a Response that renders itself:
//
//	type loginRequest struct {
//		ID       string `json:"id"`
//		Password string `json:"password"`
//	}
//
//	func login(ctx handler.Context, req loginRequest) handler.Response {
//		out, err := svc.SubmitPassword(ctx, req.ID, req.Password)
//		if err != nil {
//			return handler.JSONError(err)
//		}
//		return handler.JSON(out)
//	}
//
//	r.Post("/auth/login", handler.Wrap(login, handler.WithBinders[loginRequest](binder.JSON())))
//
// Errors from binding or rendering go to the configured ErrorHandler.
// JSONErrorHandler maps them to HTTPError values through Classify and
// writes the standard JSON envelope:
//
//	{"error": {"code": "too_many_requests", "message": "Too Many Requests"}}
//
// HTTPError keys are stable identifiers clients may switch on; messages
// are human readable and may change.
package handler
