// Package kernel provides the domain primitives shared by every aggregate of
// the fulfillment system:
//   - UUID: identifier value object wrapping github.com/google/uuid
//   - GeoPoint: WGS84 latitude/longitude reported by drivers
//   - DomainEvent and EventRecorder: events recorded by aggregates on every
//     accepted transition and drained by the unit of work on commit
//
// Value objects are immutable and must be created through their constructors;
// a zero value fails Validate.
package kernel
