//go:build forcelittle && !forcebig

package endian

const Default = ForcedLittle
