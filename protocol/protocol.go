// Package protocol holds the wire conventions shared by dendrites and axons.
//
// A call is a single HTTP exchange:
//
//	POST http://{ip}:{port}/{SynapseName}
//	Content-Type: application/json
//
//	{ ...synapse fields..., "timeout": 12, "dendrite": {...}, "axon": {...} }
//
// Authentication travels in the body. The dendrite terminal carries a signature over
// SignatureMessage, which binds the nonce, both hotkeys, the call uuid and the body
// hash, so a captured request cannot be replayed against a different axon.
package protocol

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/0xxfu/bittensor/synapse"
)

const (
	Version         = "7.2.0"
	ContentTypeJSON = "application/json"
	// AnyAddr replaces the target host when a dendrite calls an axon on its own
	// external address, which is often not reachable from inside the host.
	AnyAddr = "0.0.0.0"
)

// VersionAsInt is Version packed as major*100 + minor*10 + patch.
var VersionAsInt = mustVersionToInt(Version)

// VersionToInt packs a "major.minor.patch" string.
func VersionToInt(version string) (int, error) {
	parts := strings.Split(version, ".")
	if len(parts) != 3 {
		return 0, fmt.Errorf("protocol: version %q is not major.minor.patch", version)
	}
	weights := [3]int{100, 10, 1}
	total := 0
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("protocol: version %q has invalid component %q", version, part)
		}
		total += n * weights[i]
	}
	return total, nil
}

func mustVersionToInt(version string) int {
	n, err := VersionToInt(version)
	if err != nil {
		panic(err)
	}
	return n
}

// Endpoint returns the URL a synapse named name is posted to on axon. selfIP is the
// caller's external address.
func Endpoint(axon synapse.AxonInfo, name, selfIP string) string {
	host := axon.IP
	if selfIP != "" && host == selfIP {
		host = AnyAddr
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(axon.Port)) + "/" + name
}

// SignatureMessage is the canonical text a dendrite signs for one call.
func SignatureMessage(nonce int64, senderHotkey, receiverHotkey, uuid, bodyHash string) string {
	return fmt.Sprintf("%d.%s.%s.%s.%s", nonce, senderHotkey, receiverHotkey, uuid, bodyHash)
}
