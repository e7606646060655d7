package synapse

import "fmt"

// AxonInfo identifies a remote endpoint. The dendrite only reads it.
type AxonInfo struct {
	Version int    `json:"version"`
	IP      string `json:"ip"`
	Port    int    `json:"port"`
	IPType  int    `json:"ip_type"`
	Hotkey  string `json:"hotkey"`
	Coldkey string `json:"coldkey"`
}

// IsServing reports whether the axon advertises a reachable address.
func (a AxonInfo) IsServing() bool {
	return a.IP != "" && a.IP != "0.0.0.0"
}

func (a AxonInfo) String() string {
	return fmt.Sprintf("AxonInfo(%s:%d, %s, %s, %d)", a.IP, a.Port, a.Hotkey, a.Coldkey, a.Version)
}
