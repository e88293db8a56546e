// Package qrcode renders envelope text and otpauth enrollment URIs as PNG
// QR images, either as raw bytes or as a data URI for embedding in JSON
// responses. It wraps github.com/skip2/go-qrcode with medium error
// correction and a 256 pixel default size.
package qrcode
