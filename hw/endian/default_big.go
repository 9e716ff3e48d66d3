//go:build forcebig && !forcelittle

package endian

const Default = ForcedBig
