// Package progress publishes simulation progress. The scheduler decides the
// cadence; reporters here only deliver: LogReporter writes structured log
// records and SocketEmitter forwards events to a socket.io server.
package progress
