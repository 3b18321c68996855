//go:build !((darwin || freebsd || linux) && (amd64 || arm64))

package codanative

import "runtime"

func loadC(path string) (*Library, error) {
	return nil, simpleError(path, "", "C-ABI libraries are not supported on "+runtime.GOOS+"/"+runtime.GOARCH)
}
