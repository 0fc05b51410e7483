package main

// General API documentation for swaggo. Regenerate with `swag init -g cmd/ortbridge/docs.go`.
//
// @title           ortbridge API
// @version         1.0
// @description     Method-channel bridge to ONNX Runtime sessions and tensor values.
//
// @contact.name   ortbridge maintainers
// @contact.url    https://github.com/your-org/ortbridge
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
