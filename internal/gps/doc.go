// Package gps turns NMEA sentences from a serial GNSS receiver into the
// device's current fix.
//
// Only RMC (recommended minimum navigation data) is decoded:
//   - checksum validated against the two hex digits after the last '*'
//   - time of day, reception flag, lat/lon, speed (km/h), course, coarse day index
//   - reception transitions and fix updates are queued on the event bus
//
// Nothing in here fails loudly: bad sentences are counted and dropped.
package gps
