// Package server wires the chronos collaborators together and runs the HTTP
// listener behind the serve command.
package server
