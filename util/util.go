package util

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// SortedKeys returns keys of the map in ascending order
func SortedKeys[K constraints.Ordered, V any](m map[K]V) []K {
	ret := make([]K, 0, len(m))
	for k := range m {
		ret = append(ret, k)
	}
	slices.Sort(ret)
	return ret
}

// CloneBytes returns a copy of data. Nil stays nil, empty stays empty and non-nil
func CloneBytes(data []byte) []byte {
	if data == nil {
		return nil
	}
	ret := make([]byte, len(data))
	copy(ret, data)
	return ret
}

// Fmt formats bytes as short hex for logging
func Fmt(data []byte) string {
	if data == nil {
		return "<nil>"
	}
	if len(data) <= 16 {
		return hex.EncodeToString(data)
	}
	return fmt.Sprintf("%s..(%d)", hex.EncodeToString(data[:8]), len(data))
}

var prn = message.NewPrinter(language.English)

// Thousands formats integer with thousands separators
func Thousands[T constraints.Integer](v T) string {
	return prn.Sprintf("%d", v)
}
