// Package cli is the interactive terminal client.
//
// It stands in for the mobile screens: sign in, browse appointments, attach
// the documents each one requires, submit it for approval, and follow
// notifications. File selection is a path prompt (device.PromptPicker).
//
// The REPL is started with App.Run, which blocks until the user exits.
package cli
