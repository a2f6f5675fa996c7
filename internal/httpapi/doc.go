// Package httpapi exposes the chronos workflows over HTTP using gin.
//
// The router installs CORS, request identifiers, and a structured access log,
// then maps each JSON endpoint onto the file pipeline, the mailer, or the
// agent relay. Workflow errors are translated into status codes here and
// nowhere else.
package httpapi
