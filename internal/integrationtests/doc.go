// Package integration_tests runs complete models through the application
// and checks what their logger processes wrote.
package integration_tests
