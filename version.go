package codanative

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// ABIVersion is the layout version of Value, ControlFlowImpact and
// NativeBind this host was built with. Libraries may report the version
// they were built against through the optional coda_abi_version (C) or
// ABIVersion (Go plugin) export.
const ABIVersion = "v1.0.0"

// checkABI accepts a library version with the host's major version and a
// minor version no newer than the host's. An empty version is accepted.
func checkABI(host, lib string) error {
	if lib == "" {
		return nil
	}
	if !semver.IsValid(lib) {
		return fmt.Errorf("library ABI version %q is not valid semver", lib)
	}
	if semver.Major(lib) != semver.Major(host) {
		return fmt.Errorf("library ABI %s is incompatible with host ABI %s", lib, host)
	}
	if minor(lib) > minor(host) {
		return fmt.Errorf("library ABI %s is newer than host ABI %s", lib, host)
	}
	return nil
}

func minor(v string) int {
	mm := strings.TrimPrefix(semver.MajorMinor(v), semver.Major(v)+".")
	n, _ := strconv.Atoi(mm)
	return n
}
