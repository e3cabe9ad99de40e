//go:build !darwin || !cgo

package credentials

func nativeBackend() secretBackend { return keyringBackend{} }
