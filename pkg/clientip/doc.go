// Package clientip resolves the address of the client behind a request.
//
// Proxy headers are only honoured when listed in Config.TrustedHeaders:
//
//	res := clientip.New(clientip.Config{TrustedHeaders: []string{"X-Forwarded-For"}})
//	r.Use(res.Middleware)
//	...
//	ip := clientip.FromContext(ctx)
package clientip
