// Package stylesheet compiles the SCSS entry file of a working tree into
// plain CSS.
//
// Compilation is delegated to an Engine. The default SassBinaryEngine runs
// the dart-sass executable found on PATH with expanded output; tests and
// embedders may inject their own Engine via Compiler.WithEngine.
//
// Every failure surfaces as *CompileError so callers can distinguish a broken
// stylesheet from transport or publish problems.
package stylesheet
