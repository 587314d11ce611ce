//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !dragonfly

package impediment

func isTerminal(uintptr) bool {
	return false
}
