// Package rate throttles login attempts with fixed-window Redis counters.
//
// A window starts with the first failure (INCR + EXPIRE). Keys:
//   - bl:<email>  failures per normalized email
//   - bli:<ip>    failures per client IP (optional)
//
// A successful login clears both counters.
package rate
