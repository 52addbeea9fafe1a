// Package version stamps build-time version information into the banner
// printed by --version.
package version

import (
	"bytes"
	"fmt"
	"runtime"
	"strings"

	ver "github.com/hashicorp/go-version"
	"golang.org/x/sys/unix"
)

var (
	// Set to the content of CURRENT_VERSION file at link-time with -X flag.
	rawReleaseVersion = "0.0.0"

	releaseVersion = ver.Must(ver.NewSemver(strings.TrimSuffix(rawReleaseVersion, "\n")))

	// Set at link-time with -X flag.
	gitVersion = "unknown"
)

func ReleaseVersion() *ver.Version {
	return releaseVersion
}

// The git SHA that this copy of nettop is built from.
func GitVersion() string {
	return gitVersion
}

// DisplayString renders the version banner shown by --version:
// release version, git SHA, and architecture -- including a cross-compile
// note when the running machine's arch differs from the build target.
func DisplayString() string {
	var utsname unix.Utsname
	_ = unix.Uname(&utsname)

	archMsg := runtime.GOARCH
	machineArch := string(bytes.Trim(utsname.Machine[:], "\x00"))
	// uname reports some architectures under other names than GOARCH does.
	switch machineArch {
	case "x86_64":
		machineArch = "amd64"
	case "aarch64":
		machineArch = "arm64"
	case "i386", "i686":
		machineArch = "386"
	}
	if runtime.GOARCH != machineArch {
		archMsg = fmt.Sprintf("built for %s, running on %s", runtime.GOARCH, machineArch)
	}

	return fmt.Sprintf("%s (%s, %s)", releaseVersion.String(), gitVersion, archMsg)
}
