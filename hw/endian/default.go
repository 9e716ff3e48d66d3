//go:build !forcebig && !forcelittle

package endian

// Default is the mode selected at build time. Build with the forcebig or
// forcelittle tag to pin it regardless of the host.
const Default = HostNative
