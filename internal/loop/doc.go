// Package loop defines the fixed set of execution backend strategies
// (high-performance, platform-optimized, default), the policies and
// execution contexts they produce, and the process-wide Runtime slot the
// selected backend is installed into.
package loop
